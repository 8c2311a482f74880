package bot

import (
	"errors"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"smsrent/internal/activation"
	"smsrent/internal/logger"
	"smsrent/internal/provider"
	"smsrent/internal/session"
	"smsrent/internal/storage"
)

// Callback keys driven by the inline keyboards.
const (
	cbMenu        = "menu"
	cbBalance     = "balance"
	cbOrder       = "order"
	cbActivations = "activations"
	cbHistory     = "history"
	cbService     = "svc"
	cbCountry     = "ctry"
	cbCheck       = "check"
	cbCancel      = "cancel"
)

// Handlers wires user events to the provider client, lifecycle and session
// store. Each incoming update is processed to completion before the same
// user's next one; no state is shared across users beyond the session store.
type Handlers struct {
	api      *provider.Client
	flow     *activation.Flow
	sessions *session.Store
	audit    *storage.Log
}

// NewHandlers builds the handler set.
func NewHandlers(api *provider.Client, flow *activation.Flow, sessions *session.Store, audit *storage.Log) *Handlers {
	return &Handlers{api: api, flow: flow, sessions: sessions, audit: audit}
}

// Register binds all callback handlers.
func (h *Handlers) Register(reg *Registry) {
	_ = reg.RegisterCallback(cbMenu, h.Menu)
	_ = reg.RegisterCallback(cbBalance, h.Balance)
	_ = reg.RegisterCallback(cbOrder, h.Order)
	_ = reg.RegisterCallback(cbActivations, h.Activations)
	_ = reg.RegisterCallback(cbHistory, h.History)
	_ = reg.RegisterCallback(cbService, h.ServiceChosen)
	_ = reg.RegisterCallback(cbCountry, h.CountryChosen)
	_ = reg.RegisterCallback(cbCheck, h.CheckSMS)
	_ = reg.RegisterCallback(cbCancel, h.CancelActivation)
}

func menuMarkup() *tele.ReplyMarkup {
	return InlineButtons([]InlineBtn{
		{Text: "💰 Balance", Unique: cbBalance},
		{Text: "📱 Rent a number", Unique: cbOrder},
		{Text: "📋 My activations", Unique: cbActivations},
		{Text: "🗂 History", Unique: cbHistory},
	})
}

func backMarkup() *tele.ReplyMarkup {
	return InlineButtons([]InlineBtn{{Text: "🔙 Menu", Unique: cbMenu}})
}

func md(text string, markup *tele.ReplyMarkup) (string, *tele.SendOptions) {
	return text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}
}

// Start renders the main menu for /start.
func (h *Handlers) Start(c tele.Context) error {
	h.sessions.Clear(c.Sender().ID)
	text, opts := md(menuText, menuMarkup())
	return c.Send(text, opts)
}

// Menu re-renders the main menu from a callback.
func (h *Handlers) Menu(c tele.Context) error {
	text, opts := md(menuText, menuMarkup())
	return c.EditOrSend(text, opts)
}

// Balance shows the provider account balance.
func (h *Handlers) Balance(c tele.Context) error {
	ctx := Ctx(c)
	amount, err := h.api.Balance(ctx)
	if err != nil {
		return h.renderFailure(c, err)
	}
	text, opts := md(renderBalance(amount), backMarkup())
	return c.EditOrSend(text, opts)
}

// Order prompts for a service search query.
func (h *Handlers) Order(c tele.Context) error {
	text, opts := md(orderText, nil)
	return c.EditOrSend(text, opts)
}

// SearchService handles free text as a service search query.
func (h *Handlers) SearchService(c tele.Context) error {
	ctx := Ctx(c)
	query := c.Text()

	services, err := h.api.Services(ctx)
	if err != nil {
		return h.renderFailure(c, err)
	}

	matches := activation.MatchServices(services, query)
	if len(matches) == 0 {
		text, opts := md(renderSearchResults(query, 0), backMarkup())
		return c.Send(text, opts)
	}

	buttons := make([]InlineBtn, 0, len(matches)+1)
	for _, s := range matches {
		buttons = append(buttons, InlineBtn{
			Text:   s.Name + " (" + s.Code + ")",
			Unique: cbService,
			Data:   s.Code,
		})
	}
	buttons = append(buttons, InlineBtn{Text: "🔙 Back", Unique: cbOrder})

	text, opts := md(renderSearchResults(query, len(matches)), InlineButtons(buttons))
	return c.Send(text, opts)
}

// ServiceChosen lists rentable countries for the selected service, ranked by
// availability.
func (h *Handlers) ServiceChosen(c tele.Context) error {
	ctx := Ctx(c)
	code := CallbackPayload(c)
	if code == "" {
		text, opts := md(restartText, nil)
		return c.EditOrSend(text, opts)
	}
	h.sessions.SetService(c.Sender().ID, code)

	available, err := h.api.TopCountries(ctx, code)
	if err != nil {
		return h.renderFailure(c, err)
	}
	if len(available) == 0 {
		text, opts := md(renderNoCountries(code), InlineButtons([]InlineBtn{
			{Text: "🔙 New search", Unique: cbOrder},
		}))
		return c.EditOrSend(text, opts)
	}

	countries, err := h.api.Countries(ctx)
	if err != nil {
		return h.renderFailure(c, err)
	}
	names := make(map[int]string, len(countries))
	for _, country := range countries {
		names[country.ID] = country.Name
	}

	var buttons []InlineBtn
	for _, entry := range activation.RankCountries(available) {
		name, ok := names[entry.CountryID]
		if !ok {
			// Recoverable gap: availability for a country the reference
			// list does not know is dropped, not fatal.
			continue
		}
		buttons = append(buttons, InlineBtn{
			Text:   countryLabel(name, entry),
			Unique: cbCountry,
			Data:   strconv.Itoa(entry.CountryID),
		})
	}
	if len(buttons) == 0 {
		text, opts := md(renderNoCountries(code), InlineButtons([]InlineBtn{
			{Text: "🔙 New search", Unique: cbOrder},
		}))
		return c.EditOrSend(text, opts)
	}
	buttons = append(buttons, InlineBtn{Text: "🔙 New search", Unique: cbOrder})

	text, opts := md(renderCountriesHeader(code), InlineButtons(buttons))
	return c.EditOrSend(text, opts)
}

// CountryChosen rents a number for the session's service in the chosen
// country. The rental call is never retried automatically; every retry is an
// explicit user action.
func (h *Handlers) CountryChosen(c tele.Context) error {
	ctx := Ctx(c)
	userID := c.Sender().ID

	countryID, err := PayloadInt(c)
	if err != nil {
		text, opts := md(restartText, nil)
		return c.EditOrSend(text, opts)
	}
	service, ok := h.sessions.Service(userID)
	if !ok {
		text, opts := md(restartText, nil)
		return c.EditOrSend(text, opts)
	}

	act, err := h.flow.Request(ctx, service, countryID)
	switch {
	case errors.Is(err, activation.ErrNoNumbers):
		text, opts := md("❌ *No numbers left*\n\nTry another country or come back later.", InlineButtons([]InlineBtn{
			{Text: "🔙 Pick another country", Unique: cbService, Data: service},
		}))
		return c.EditOrSend(text, opts)
	case errors.Is(err, activation.ErrNoBalance):
		text, opts := md("❌ *Insufficient balance*\n\nTop up your provider account.", InlineButtons([]InlineBtn{
			{Text: "💰 Check balance", Unique: cbBalance},
		}))
		return c.EditOrSend(text, opts)
	case errors.Is(err, provider.ErrUnavailable):
		text, opts := md(unavailableText, InlineButtons([]InlineBtn{
			{Text: "🔙 Pick another country", Unique: cbService, Data: service},
		}))
		return c.EditOrSend(text, opts)
	case err != nil:
		var domainErr *provider.DomainError
		if errors.As(err, &domainErr) {
			text, opts := md(renderProviderError(domainErr.Raw), backMarkup())
			return c.EditOrSend(text, opts)
		}
		return err
	}

	// A new rental supersedes any previous activation in this session.
	h.sessions.SetActivation(userID, act)
	h.audit.Record(ctx, storage.Entry{
		UserID:       userID,
		ActivationID: act.ID,
		Service:      act.Service,
		CountryID:    act.CountryID,
		Phone:        act.PhoneNumber,
		Event:        storage.EventRequested,
	})

	text, opts := md(renderNumber(act), activationMarkup())
	return c.EditOrSend(text, opts)
}

func activationMarkup() *tele.ReplyMarkup {
	return InlineButtons([]InlineBtn{
		{Text: "🔄 Check SMS", Unique: cbCheck},
		{Text: "❌ Cancel", Unique: cbCancel},
	})
}

// CheckSMS polls the current activation for its code. "Not yet" is a
// transient alert, never an error banner.
func (h *Handlers) CheckSMS(c tele.Context) error {
	ctx := Ctx(c)
	userID := c.Sender().ID

	act, ok := h.sessions.Activation(userID)
	if !ok {
		text, opts := md(restartText, nil)
		return c.EditOrSend(text, opts)
	}

	alreadyVerified := act.State == activation.StateVerified
	result, payload, err := h.flow.Poll(ctx, act)
	if err != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: "⚠️ Provider unavailable, try again", ShowAlert: true})
		return nil
	}

	switch result {
	case activation.PollCodeReady:
		if !alreadyVerified {
			h.audit.Record(ctx, storage.Entry{
				UserID:       userID,
				ActivationID: act.ID,
				Service:      act.Service,
				CountryID:    act.CountryID,
				Phone:        act.PhoneNumber,
				Event:        storage.EventCode,
				SMSCode:      payload,
			})
		}
		text, opts := md(renderCode(payload), backMarkup())
		return c.EditOrSend(text, opts)
	case activation.PollWaiting:
		_ = c.Respond(&tele.CallbackResponse{Text: "⏳ SMS not received yet, try again in a few seconds", ShowAlert: true})
		return nil
	default:
		text, opts := md(renderUnexpectedStatus(payload), activationMarkup())
		return c.EditOrSend(text, opts)
	}
}

// CancelActivation cancels the current activation; a rejected cancel keeps
// the activation so the user may retry.
func (h *Handlers) CancelActivation(c tele.Context) error {
	ctx := Ctx(c)
	userID := c.Sender().ID

	act, ok := h.sessions.Activation(userID)
	if !ok {
		text, opts := md(restartText, nil)
		return c.EditOrSend(text, opts)
	}

	if err := h.flow.Cancel(ctx, act); err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			_ = c.Respond(&tele.CallbackResponse{Text: "⚠️ Provider unavailable, try again", ShowAlert: true})
			return nil
		}
		var domainErr *provider.DomainError
		if errors.As(err, &domainErr) {
			text, opts := md(renderUnexpectedStatus(domainErr.Raw), activationMarkup())
			return c.EditOrSend(text, opts)
		}
		return err
	}

	h.audit.Record(ctx, storage.Entry{
		UserID:       userID,
		ActivationID: act.ID,
		Service:      act.Service,
		CountryID:    act.CountryID,
		Phone:        act.PhoneNumber,
		Event:        storage.EventCancelled,
	})
	h.sessions.ClearActivation(userID)

	text, opts := md("✅ *Activation cancelled*\n\nThe rental fee was refunded.", backMarkup())
	return c.EditOrSend(text, opts)
}

// Activations lists rentals the provider still reports as in flight.
func (h *Handlers) Activations(c tele.Context) error {
	ctx := Ctx(c)
	list, err := h.api.ActiveActivations(ctx)
	if err != nil {
		return h.renderFailure(c, err)
	}
	text, opts := md(renderActivations(list), backMarkup())
	return c.EditOrSend(text, opts)
}

// History shows recent finished rentals.
func (h *Handlers) History(c tele.Context) error {
	ctx := Ctx(c)
	entries, err := h.api.History(ctx, provider.HistoryOptions{Limit: 10})
	if err != nil {
		return h.renderFailure(c, err)
	}
	text, opts := md(renderHistory(entries), backMarkup())
	return c.EditOrSend(text, opts)
}

// renderFailure maps provider failures to a retryable user message. Nothing
// here is fatal; the raw text of opaque errors is preserved.
func (h *Handlers) renderFailure(c tele.Context, err error) error {
	if errors.Is(err, provider.ErrUnavailable) {
		text, opts := md(unavailableText, backMarkup())
		return c.EditOrSend(text, opts)
	}
	var domainErr *provider.DomainError
	if errors.As(err, &domainErr) {
		text, opts := md(renderProviderError(domainErr.Raw), backMarkup())
		return c.EditOrSend(text, opts)
	}
	logger.TG.Error("handler failed",
		slog.String("event", "tg.handler"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	text, opts := md(unavailableText, backMarkup())
	return c.EditOrSend(text, opts)
}
