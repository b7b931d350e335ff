package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/runledger/internal/config"
	"github.com/roach88/runledger/internal/engine"
	"github.com/roach88/runledger/internal/events"
	"github.com/roach88/runledger/internal/store"
	"github.com/roach88/runledger/internal/verifier"
)

// session is an open ledger with a running engine loop, valid for the
// duration of one command.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	redis  *redis.Client

	ctx    context.Context
	cancel context.CancelFunc
	done   chan error
}

// loadConfig reads the configuration and applies the global flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if opts.Database != "" {
		if cfg.Database.Driver == "postgres" {
			cfg.Database.DSN = opts.Database
		} else {
			cfg.Database.Path = opts.Database
		}
	}
	if opts.Caller != "" {
		cfg.Identity = opts.Caller
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger. Diagnostics always go to w
// (stderr) so stdout stays parseable.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, _ := config.ParseLevel(cfg.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openSession loads config, opens the store and starts the engine loop.
// The session context is cancelled on SIGINT/SIGTERM.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))

	st, err := store.OpenDriver(cfg.Database.Driver, cfg.Database.Target())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	s := &session{cfg: cfg, store: st}

	sinks := []events.Sink{}
	if cfg.Events.Log {
		// Event lines share stdout with text output but never with the JSON envelope.
		w := cmd.OutOrStdout()
		if opts.Format == "json" {
			w = cmd.ErrOrStderr()
		}
		sinks = append(sinks, events.NewLogSink(w))
	}
	if cfg.Events.Redis.Enabled() {
		s.redis = events.NewRedisClient(events.RedisOptions{
			Addr:     cfg.Events.Redis.Addr,
			Password: cfg.Events.Redis.Password,
			DB:       cfg.Events.Redis.DB,
		})
		sinks = append(sinks, events.NewRedisSink(s.redis, cfg.Events.Redis.Stream, cfg.Events.Redis.MaxLen))
	}

	s.engine = engine.New(st, buildResolver(cfg),
		engine.WithSink(events.Multi(sinks...)),
		engine.WithStrictAmounts(cfg.Commit.StrictAmounts),
	)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	s.done = make(chan error, 1)
	go func() {
		s.done <- s.engine.Run(s.ctx)
	}()

	return s, nil
}

// buildResolver registers one HTTP client per configured verifier behind
// the shared dispatch limiter.
func buildResolver(cfg *config.Config) verifier.Resolver {
	registry := verifier.NewRegistry()
	for _, vc := range cfg.Verifiers {
		registry.Register(vc.ID, verifier.NewHTTP(vc.Endpoint, vc.Timeout))
	}
	return verifier.LimitResolver(registry, verifier.NewLimiter(cfg.Dispatch.Rate, cfg.Dispatch.Burst))
}

// Close stops the engine, waits for the loop to exit and releases the
// store and Redis connection.
func (s *session) Close() error {
	s.engine.Stop()
	runErr := <-s.done
	s.cancel()

	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	errs := []error{runErr, s.store.Close()}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return opts.formatter(cmd).Fail(err)
	}

	fnErr := fn(s)
	if err := s.Close(); err != nil {
		slog.Warn("session close failed", "error", err)
	}
	return fnErr
}

// requireCaller returns the caller identity for a mutating command.
func (s *session) requireCaller() (string, error) {
	if s.cfg.Identity == "" {
		return "", NewExitError(ExitCommandError, "no caller identity: pass --as or set identity in config")
	}
	return s.cfg.Identity, nil
}
