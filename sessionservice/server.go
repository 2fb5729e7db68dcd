package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

const serviceName = "session-service"

// NewHandler builds the HTTP surface: the protocol endpoint at basePath, a status resource at the
// root, and ERROR bodies for every other path or method.
func NewHandler(service *Service, basePath string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = discardLogger()
	}
	router := mux.NewRouter()
	router.Handle(basePath, service).Methods(http.MethodPost)
	router.HandleFunc("/", serveStatus).Methods(http.MethodGet, http.MethodHead)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, http.StatusNotFound, servicedef.ResultError, servicedef.MessageNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, http.StatusMethodNotAllowed, servicedef.ResultError, servicedef.MessageMethodNotAllowed)
	})

	return Chain(router,
		RequestID(),
		AccessLog(logger),
		Recover(logger),
	)
}

func serveStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"service":%q,"status":"up"}`, serviceName)
}

// Server runs the service until it is shut down.
type Server struct {
	config     Config
	store      SessionStore
	httpServer *http.Server
	logger     *slog.Logger
	hooks      shutdownHooks
	listener   net.Listener
	lock       sync.Mutex
}

// NewServer validates the configuration, opens the session store, and prepares the HTTP server.
// It does not start listening.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = discardLogger()
	}
	store, err := OpenStore(config.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("could not open session store: %w", err)
	}

	service := NewService(config.Secret, store, NewUpstreamClient(config.UpstreamURL, config.UpstreamTimeout), logger)
	s := &Server{
		config: config,
		store:  store,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           NewHandler(service, config.BasePath, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}

	// hooks run in reverse order: stop accepting requests first, then close the store
	s.hooks.OnShutdown(func(context.Context) error {
		logger.Info("closing session store")
		return store.Close()
	})
	s.hooks.OnShutdown(func(ctx context.Context) error {
		logger.Info("shutting down HTTP server")
		return s.httpServer.Shutdown(ctx)
	})
	return s, nil
}

// Listen binds the port. It is separate from Serve so that callers can tell binding errors apart
// from later failures.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.listener = l
	s.lock.Unlock()
	return nil
}

// Close releases everything NewServer acquired. It is for servers that never got to Run; after
// Run has returned it does nothing.
func (s *Server) Close() error {
	return s.hooks.run(context.Background())
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens (if Listen was not already called) and serves until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("session service listening",
		"addr", s.Addr().String(),
		"path", s.config.BasePath,
		"upstream", s.config.UpstreamURL,
		"store", s.config.StoreURL)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-serveErr:
		_ = s.hooks.run(context.Background())
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.hooks.run(shutdownCtx)
	if serr := <-serveErr; serr != nil && !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	s.logger.Info("session service stopped")
	return err
}

// shutdownHooks runs registered functions in reverse order of registration.
type shutdownHooks struct {
	hooks []func(context.Context) error
	lock  sync.Mutex
}

func (h *shutdownHooks) OnShutdown(hook func(context.Context) error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.hooks = append(h.hooks, hook)
}

// run calls every hook once; hooks are dropped as they are taken, so a second run is a no-op.
func (h *shutdownHooks) run(ctx context.Context) error {
	h.lock.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.lock.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
