// Package app wires all voicepad subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSessionManager, WithMetrics). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxkit/voicepad/internal/config"
	"github.com/voxkit/voicepad/internal/health"
	"github.com/voxkit/voicepad/internal/observe"
	"github.com/voxkit/voicepad/internal/orchestrator"
	"github.com/voxkit/voicepad/internal/resilience"
	"github.com/voxkit/voicepad/internal/session"
	"github.com/voxkit/voicepad/internal/web"
	"github.com/voxkit/voicepad/pkg/provider/stt"
	"github.com/voxkit/voicepad/pkg/provider/tts"
)

// shutdownTimeout bounds the HTTP server drain during shutdown.
const shutdownTimeout = 10 * time.Second

// Providers holds the provider chains the app speaks through. TTS is
// required; a nil STT disables transcription. The names label the chains in
// metrics. Populated by main.go via [BuildProviders], or directly in tests.
type Providers struct {
	TTS     tts.Provider
	TTSName string
	STT     stt.Provider
	STTName string
}

// BuildProviders constructs the TTS and STT chains from the config using the
// registry's factories. When fallbacks are configured the primary is wrapped
// in a circuit-breaking fallback chain.
func BuildProviders(cfg *config.Config, reg *config.Registry) (*Providers, error) {
	p := &Providers{}
	fallbackCfg := fallbackConfig(cfg.Providers.Resilience)

	primary, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		return nil, fmt.Errorf("app: create tts provider: %w", err)
	}
	p.TTSName = cfg.Providers.TTS.Name
	if len(cfg.Providers.TTSFallbacks) == 0 {
		p.TTS = primary
	} else {
		chain := resilience.NewTTSFallback(primary, cfg.Providers.TTS.Name, fallbackCfg)
		for _, entry := range cfg.Providers.TTSFallbacks {
			fb, err := reg.CreateTTS(entry)
			if err != nil {
				return nil, fmt.Errorf("app: create tts fallback %q: %w", entry.Name, err)
			}
			chain.AddFallback(entry.Name, fb)
		}
		p.TTS = chain
	}

	if cfg.Providers.STT.Name == "" {
		return p, nil
	}
	sttPrimary, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		return nil, fmt.Errorf("app: create stt provider: %w", err)
	}
	p.STTName = cfg.Providers.STT.Name
	if len(cfg.Providers.STTFallbacks) == 0 {
		p.STT = sttPrimary
	} else {
		chain := resilience.NewSTTFallback(sttPrimary, cfg.Providers.STT.Name, fallbackCfg)
		for _, entry := range cfg.Providers.STTFallbacks {
			fb, err := reg.CreateSTT(entry)
			if err != nil {
				return nil, fmt.Errorf("app: create stt fallback %q: %w", entry.Name, err)
			}
			chain.AddFallback(entry.Name, fb)
		}
		p.STT = chain
	}
	return p, nil
}

// fallbackConfig maps the YAML breaker tuning onto the resilience package's
// config. Zero values pass through so the breaker defaults still apply.
func fallbackConfig(rc config.ResilienceConfig) resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  rc.MaxFailures,
			ResetTimeout: rc.ResetTimeout,
			HalfOpenMax:  rc.HalfOpenProbes,
		},
	}
}

// App owns all subsystem lifetimes and serves the voicepad web surface.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems, initialised in New and torn down in Shutdown.
	metrics  *observe.Metrics
	sessions *session.Manager
	orch     *orchestrator.Orchestrator
	server   *web.Server
	httpSrv  *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSessionManager injects a session manager instead of creating one from
// config.
func WithSessionManager(m *session.Manager) Option {
	return func(a *App) { a.sessions = m }
}

// WithMetrics injects metric instruments instead of using the package
// defaults.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via [BuildProviders]). Use Option functions
// to inject test doubles for any subsystem.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.TTS == nil {
		return nil, errors.New("app: a TTS provider is required")
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// 1. Metrics.
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// 2. Session manager.
	a.initSessions()

	// 3. Orchestrator.
	if err := a.initOrchestrator(); err != nil {
		return nil, fmt.Errorf("app: init orchestrator: %w", err)
	}

	// 4. Web server.
	if err := a.initServer(); err != nil {
		return nil, fmt.Errorf("app: init server: %w", err)
	}

	return a, nil
}

func (a *App) initSessions() {
	if a.sessions != nil {
		return
	}
	metrics := a.metrics
	a.sessions = session.NewManager(session.ManagerConfig{
		IdleTimeout: a.cfg.Session.IdleTimeout,
		OnCount: func(delta int) {
			metrics.ActiveSessions.Add(context.Background(), int64(delta))
		},
	})
}

func (a *App) initOrchestrator() error {
	orch, err := orchestrator.New(orchestrator.Config{
		TTS:              a.providers.TTS,
		TTSName:          a.providers.TTSName,
		STT:              a.providers.STT,
		STTName:          a.providers.STTName,
		Metrics:          a.metrics,
		SynthesisTimeout: a.cfg.Synthesis.Timeout,
		DefaultVoice:     a.cfg.Synthesis.DefaultVoice,
		DefaultLanguage:  a.cfg.Synthesis.DefaultLanguage,
	})
	if err != nil {
		return err
	}
	a.orch = orch
	a.closers = append(a.closers, func() error {
		orch.Close()
		return nil
	})
	return nil
}

func (a *App) initServer() error {
	srv, err := web.New(web.Config{
		Orchestrator:   a.orch,
		Sessions:       a.sessions,
		Metrics:        a.metrics,
		Recorder:       a.cfg.UI.Recorder,
		MaxUploadBytes: a.cfg.UI.MaxUploadBytes,
	})
	if err != nil {
		return err
	}
	a.server = srv

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           srv.Handler(health.SynthesisCheck(a.orch)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler exposes the HTTP route table, for tests.
func (a *App) Handler() http.Handler {
	return a.httpSrv.Handler
}

// Run starts the HTTP server and the session janitor and blocks until ctx is
// cancelled or the server fails. The server is drained before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tls := a.cfg.Server.TLS
		var err error
		if tls != nil {
			slog.Info("listening", "addr", a.httpSrv.Addr, "tls", true)
			err = a.httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", a.httpSrv.Addr)
			err = a.httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return a.sessions.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpSrv.Shutdown(drainCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown tears down all subsystems in the order they were created. It is
// safe to call more than once and after Run has returned.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		drainCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := a.httpSrv.Shutdown(drainCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}

		for _, closer := range a.closers {
			if err := ctx.Err(); err != nil {
				errs = append(errs, fmt.Errorf("app: shutdown cut short: %w", err))
				break
			}
			if err := closer(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
