package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"smsrent/internal/config"
	"smsrent/internal/logger"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config   *config.Config
	Registry *Registry
	Handlers *Handlers

	DisableWebhookCleanup bool
}

// DefaultMiddlewares builds the shared middleware chain.
func DefaultMiddlewares(cfg *config.Config) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  RateLimitMiddleware(RateLimitOptions{Interval: interval, Exclude: ex}),
			})
		}
	}

	mws = append(mws, Middleware{Name: "logger", Use: LoggerMiddleware})
	return mws
}

// Run composes and runs the Telegram bot until the provided context is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Handlers == nil {
		return fmt.Errorf("telegram: nil handlers provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	opts.Handlers.Register(reg)

	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	default:
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
		)
		if !opts.DisableWebhookCleanup {
			if err := deleteWebhook(cfg.Telegram.Token); err != nil {
				logger.TG.Warn("failed to delete webhook",
					slog.String("event", "delete_webhook"),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	for _, mw := range DefaultMiddlewares(cfg) {
		bot.Use(mw.Use)
	}

	bot.Handle("/start", opts.Handlers.Start)
	bot.Handle(tele.OnText, opts.Handlers.SearchService)
	bot.Handle(tele.OnCallback, callbackDispatch(reg))

	logger.TG.Info("bot wired",
		slog.String("event", "wire"),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// callbackDispatch routes callbacks through the registry.
func callbackDispatch(reg *Registry) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		key := CallbackKey(c)
		handler, ok := reg.GetCallback(key)
		if !ok || handler == nil {
			handler = reg.CallbackNotFound()
			if handler == nil {
				return nil
			}
		}

		start := time.Now()
		err := handler(c)
		logger.TG.LogAttrs(Ctx(c), slog.LevelInfo, "handler.handled",
			slog.String("event", "handler.handled"),
			slog.String("status", logger.Status(err)),
			slog.String("cb_key", key),
			slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
		)
		return err
	}
}

func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
