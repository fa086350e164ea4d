/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/orderpacing/internal/api"
	"github.com/friendsincode/orderpacing/internal/config"
	"github.com/friendsincode/orderpacing/internal/eventbus"
	"github.com/friendsincode/orderpacing/internal/events"
	"github.com/friendsincode/orderpacing/internal/pacing"
	"github.com/friendsincode/orderpacing/internal/rules"
	"github.com/friendsincode/orderpacing/internal/store"
	"github.com/friendsincode/orderpacing/internal/telemetry"
)

// Server bundles the HTTP listeners and the pacing engines behind them.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	store         store.Store
	registry      *pacing.Registry
	bus           *events.Bus

	closers  []func() error
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRouter()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := chi.NewRouter()
	metricsMux.Handle("/metrics", telemetry.Handler())
	srv.metricsServer = &http.Server{
		Addr:              cfg.MetricsBind,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	st, err := OpenStore(context.Background(), s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.store = st
	if closer, ok := st.(interface{ Close() error }); ok {
		s.DeferClose(closer.Close)
	}

	set := &rules.RuleSet{}
	if s.cfg.RulesFile != "" {
		set, err = rules.LoadFile(s.cfg.RulesFile)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		s.logger.Info().Str("path", s.cfg.RulesFile).Int("rules", set.Len()).Msg("rules loaded")
	}

	s.registry, err = pacing.NewRegistry(pacing.Options{
		Store:      st,
		Keys:       store.Keyspace{Prefix: s.cfg.KeyPrefix},
		Mode:       pacing.TimeframeMode(s.cfg.TimeframeMode),
		Timezone:   s.cfg.Timezone,
		Rules:      set,
		EmptyRules: pacing.EmptyRulesPolicy(s.cfg.EmptyRules),
		Bus:        s.bus,
		Logger:     s.logger,
	})
	if err != nil {
		return fmt.Errorf("init pacing: %w", err)
	}

	if s.cfg.EventRelayEnabled {
		if err := s.startRelay(st); err != nil {
			return err
		}
	}
	return nil
}

// startRelay shares busy period and rule events with other replicas over
// the store's Redis connection.
func (s *Server) startRelay(st store.Store) error {
	redisStore, ok := st.(*store.RedisStore)
	if !ok {
		return fmt.Errorf("event relay requires the redis store")
	}

	relayCfg := eventbus.DefaultRelayConfig()
	relayCfg.Channel = s.cfg.KeyPrefix + s.cfg.EventChannel
	relayCfg.NodeID = s.cfg.NodeID

	relay := eventbus.NewRelay(redisStore.Client(), s.bus, relayCfg, s.logger)
	if err := relay.Start(context.Background()); err != nil {
		return fmt.Errorf("start event relay: %w", err)
	}
	s.DeferClose(relay.Close)
	return nil
}

// OpenStore connects the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn().Msg("using in-memory store; orders and busy periods are lost on restart")
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		redisCfg := store.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		st, err := store.NewRedisStore(ctx, redisCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		return st, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store)
}

func (s *Server) configureRouter() {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("pacing-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(30 * time.Second))

	api.New(s.registry, s.logger).Routes(router)
	s.router = router
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the Prometheus listener.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Registry returns the per-bucket engine registry.
func (s *Server) Registry() *pacing.Registry {
	return s.registry
}

// Bus returns the in-process event bus.
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	created := s.bus.Subscribe(events.EventBusyPeriodCreated)
	replaced := s.bus.Subscribe(events.EventRulesReplaced)

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		defer s.bus.Unsubscribe(events.EventBusyPeriodCreated, created)
		defer s.bus.Unsubscribe(events.EventRulesReplaced, replaced)

		logger := s.logger.With().Str("component", "event_log").Logger()
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-created:
				logger.Debug().Fields(map[string]any(payload)).Msg("busy period created")
			case payload := <-replaced:
				logger.Info().Fields(map[string]any(payload)).Msg("rules replaced")
			}
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}
