// ABOUTME: Server orchestrator that wires the console, chat pages, and background loops
// ABOUTME: Owns the HTTP listener, store, pollers, and graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/chat"
	"github.com/2389/shopdesk/internal/config"
	"github.com/2389/shopdesk/internal/dashboard"
	"github.com/2389/shopdesk/internal/dedupe"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
	"github.com/2389/shopdesk/internal/webadmin"
	"github.com/2389/shopdesk/internal/webchat"
)

const (
	sweepInterval = 10 * time.Minute
	dedupeTTL     = 2 * time.Minute
	dedupeMaxSize = 10000
)

// Server runs the shopdesk web console.
type Server struct {
	config     *config.Config
	store      store.Store
	httpServer *http.Server
	sessions   *session.Manager
	status     *chat.StatusPoller
	verifier   *chat.Verifier
	dedupe     *dedupe.Window
	logger     *slog.Logger

	wg sync.WaitGroup
}

// initStore opens the SQLite store. SHOPDESK_DB_PATH overrides the config.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SHOPDESK_DB_PATH"); envPath != "" {
		dbPath = envPath
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New builds every component from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	api := apiclient.New(apiclient.Options{
		BaseURL:        cfg.API.BaseURL,
		RequestTimeout: cfg.API.RequestTimeout,
		VerifyTimeout:  cfg.API.VerifyTimeout,
		Logger:         logger,
	})

	sessions, err := session.NewManager(s, session.Options{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.Session.TTL,
		Notify: map[store.App]session.LogoutFunc{
			store.AppAdmin: api.Logout,
			store.AppUser:  api.UserLogout,
		},
		Logger: logger,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating session manager: %w", err)
	}

	hook := chat.NewWebhook(chat.WebhookOptions{
		URL:           cfg.Chat.WebhookURL,
		StatusURL:     cfg.Chat.StatusURL,
		Timeout:       cfg.Chat.Timeout,
		StatusTimeout: cfg.Chat.StatusTimeout,
	})
	window := dedupe.New(dedupeTTL, dedupeMaxSize)
	exchange := chat.NewExchange(s, hook, window, cfg.Chat.HistoryLimit, logger)
	status := chat.NewStatusPoller(hook, cfg.Chat.StatusInterval, logger)
	verifier := chat.NewVerifier(api, sessions, cfg.Session.VerifyInterval, logger)

	controller := dashboard.NewController(api, s, dashboard.NewStateStore(), logger)

	// Ending a session drops its dashboard state and its chat log.
	sessions.OnDestroy(controller.States().Delete)
	sessions.OnDestroy(func(id string) {
		if err := exchange.Clear(context.Background(), id); err != nil {
			logger.Warn("failed to clear chat log of ended session", "error", err)
		}
	})

	srv := &Server{
		config:   cfg,
		store:    s,
		sessions: sessions,
		status:   status,
		verifier: verifier,
		dedupe:   window,
		logger:   logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}
	webadmin.New(controller, sessions, api, s, logger).RegisterRoutes(mux)
	webchat.New(webchat.Options{
		Sessions:      sessions,
		Auth:          api,
		Exchange:      exchange,
		Status:        status,
		Verifier:      verifier,
		DefaultSender: cfg.Chat.DefaultSender,
		Logger:        logger,
	}).RegisterRoutes(mux)

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, nil
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// startBackground runs the pollers until ctx is done.
func (s *Server) startBackground(ctx context.Context) {
	loops := []func(context.Context){
		s.status.Run,
		s.verifier.Run,
		func(ctx context.Context) { s.sessions.RunSweeper(ctx, sweepInterval) },
	}
	for _, run := range loops {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(ctx)
		}()
	}
}

// startServer serves HTTP in a goroutine, returning its error channel.
func (s *Server) startServer(ln net.Listener) chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	return errCh
}

// Run starts serving and blocks until ctx is canceled or the server fails.
// Returns nil on graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting shopdesk", "http_addr", s.config.Server.HTTPAddr, "api", s.config.API.BaseURL)

	ln, err := net.Listen("tcp", s.config.Server.HTTPAddr)
	if err != nil {
		_ = s.store.Close()
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	s.startBackground(bgCtx)

	errCh := s.startServer(ln)
	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	stopBackground()
	shutdownErr := s.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the run context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown stops the HTTP server, waits for background loops, and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("background loops did not stop in time")
	}

	s.dedupe.Close()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
