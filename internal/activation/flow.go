package activation

import (
	"context"
	"errors"
	"log/slog"

	"smsrent/internal/logger"
	"smsrent/internal/provider"
)

// Sentinel outcomes of a rental request. Both are recoverable: the user is
// told to pick another country or to check the balance.
var (
	ErrNoNumbers = errors.New("no numbers available")
	ErrNoBalance = errors.New("insufficient balance")
)

// API is the slice of the provider client the lifecycle needs.
type API interface {
	RentNumber(ctx context.Context, service string, countryID int) (provider.Reply, error)
	Status(ctx context.Context, activationID string) (provider.Reply, error)
	SetStatus(ctx context.Context, activationID string, status int) (provider.Reply, error)
}

// Flow drives one rental from request through completion or cancellation.
type Flow struct {
	api API
}

// NewFlow wires the lifecycle over a provider API.
func NewFlow(api API) *Flow {
	return &Flow{api: api}
}

// Request rents a number for (service, countryID). On success the returned
// activation is in StateAwaitingCode. NO_NUMBERS and NO_BALANCE map to their
// sentinels; any other reply becomes a DomainError carrying the raw text.
// No activation is created on failure.
func (f *Flow) Request(ctx context.Context, service string, countryID int) (*Activation, error) {
	reply, err := f.api.RentNumber(ctx, service, countryID)
	if err != nil {
		return nil, err
	}

	switch reply.Marker {
	case provider.MarkerNumber:
		act := &Activation{
			ID:          reply.Field(0),
			Service:     service,
			CountryID:   countryID,
			PhoneNumber: reply.Field(1),
			State:       StateRequested,
		}
		act.advance(StateAwaitingCode)
		logger.Info(ctx, "activation", "request.ok",
			slog.String("activation_id", act.ID),
			slog.String("service", service),
			slog.Int("country", countryID),
		)
		return act, nil
	case provider.MarkerNoNumbers:
		return nil, ErrNoNumbers
	case provider.MarkerNoBalance:
		return nil, ErrNoBalance
	default:
		logger.Warn(ctx, "activation", "request.rejected",
			slog.String("service", service),
			slog.Int("country", countryID),
			slog.String("reply", logger.SanitizeLimit(reply.Raw, 256)),
		)
		return nil, &provider.DomainError{Raw: reply.Raw}
	}
}

// PollResult classifies the outcome of one poll attempt.
type PollResult int

const (
	// PollCodeReady means the SMS code arrived and the activation is verified.
	PollCodeReady PollResult = iota
	// PollWaiting means no code yet; retry later, never an error.
	PollWaiting
	// PollUnexpected means the provider said something unrecognized; the
	// activation stays pollable and the raw text is preserved.
	PollUnexpected
)

// Poll checks the activation for an incoming code. The first code-ready reply
// transitions the activation to StateVerified and issues exactly one confirm
// call; polling an already verified activation returns its code without
// touching the provider.
func (f *Flow) Poll(ctx context.Context, act *Activation) (PollResult, string, error) {
	if act.State == StateVerified {
		return PollCodeReady, act.SMSCode, nil
	}

	reply, err := f.api.Status(ctx, act.ID)
	if err != nil {
		return PollWaiting, "", err
	}

	switch reply.Marker {
	case provider.MarkerCodeReady:
		act.SMSCode = reply.Field(0)
		act.advance(StateVerified)
		logger.Info(ctx, "activation", "code.received",
			slog.String("activation_id", act.ID),
		)
		// Close out billing. A confirm failure is logged, not surfaced: the
		// code is already in hand and setStatus may be retried out of band.
		if _, err := f.api.SetStatus(ctx, act.ID, provider.StatusConfirm); err != nil {
			logger.Warn(ctx, "activation", "confirm.failed",
				slog.String("activation_id", act.ID),
				slog.String("err", err.Error()),
			)
		}
		return PollCodeReady, act.SMSCode, nil
	case provider.MarkerWaitCode:
		return PollWaiting, "", nil
	default:
		logger.Warn(ctx, "activation", "poll.unexpected",
			slog.String("activation_id", act.ID),
			slog.String("reply", logger.SanitizeLimit(reply.Raw, 256)),
		)
		return PollUnexpected, reply.Raw, nil
	}
}

// Cancel asks the provider to cancel the activation. Only a cancel-accepted
// reply transitions the state; any other reply is surfaced as a DomainError
// and the activation keeps its prior state, so cancelling may be retried.
func (f *Flow) Cancel(ctx context.Context, act *Activation) error {
	if act.State == StateCancelled {
		return nil
	}

	reply, err := f.api.SetStatus(ctx, act.ID, provider.StatusCancel)
	if err != nil {
		return err
	}
	if reply.Marker != provider.MarkerCancelled {
		return &provider.DomainError{Raw: reply.Raw}
	}

	act.advance(StateCancelled)
	logger.Info(ctx, "activation", "cancelled",
		slog.String("activation_id", act.ID),
	)
	return nil
}
