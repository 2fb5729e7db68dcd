package sessionservice

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nordcodes/session-contract-tests/servicedef"
	"github.com/nordcodes/session-contract-tests/token"
)

// Upstream is the pair of dependencies the service delegates to.
type Upstream interface {
	Auth(ctx context.Context, token string) error
	DoAction(ctx context.Context, token string) error
}

// Outcome is the result of processing one protocol request.
type Outcome struct {
	Result  servicedef.Result
	Message string
}

func ok() Outcome { return Outcome{Result: servicedef.ResultOK} }

func fail(message string) Outcome { return Outcome{Result: servicedef.ResultError, Message: message} }

// Service implements the session state machine.
type Service struct {
	secret   []byte
	store    SessionStore
	upstream Upstream
	locks    *keyedMutex
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service that accepts requests carrying secret as their API key.
func NewService(secret string, store SessionStore, upstream Upstream, logger *slog.Logger) *Service {
	if logger == nil {
		logger = discardLogger()
	}
	return &Service{
		secret:   []byte(secret),
		store:    store,
		upstream: upstream,
		locks:    newKeyedMutex(),
		logger:   logger,
		now:      time.Now,
	}
}

// Handle processes one request. apiKey is the header value; an absent header and an empty one
// are treated the same. Checks happen in a fixed order and the first failure wins: API key, then
// required fields and action name, then token format, then session state, then the upstream call.
func (s *Service) Handle(ctx context.Context, apiKey, tok string, action servicedef.Action) Outcome {
	logger := loggerFor(ctx, s.logger)

	if !s.validAPIKey(apiKey) {
		logger.Info("rejected request with invalid API key")
		return fail(servicedef.MessageInvalidAPIKey)
	}
	if action == "" {
		return fail(servicedef.MessageMissingAction)
	}
	if !action.IsKnown() {
		logger.Info("rejected unknown action", "action", string(action))
		return fail(servicedef.MessageUnknownAction)
	}
	if tok == "" {
		return fail(servicedef.MessageMissingToken)
	}
	if !token.IsValid(tok) {
		return fail(servicedef.TokenPatternMessage)
	}

	unlock := s.locks.Lock(tok)
	defer unlock()

	logger = logger.With("action", string(action))
	switch action {
	case servicedef.ActionLogin:
		return s.login(ctx, logger, tok)
	case servicedef.ActionAction:
		return s.action(ctx, logger, tok)
	default:
		return s.logout(ctx, logger, tok)
	}
}

func (s *Service) login(ctx context.Context, logger *slog.Logger, tok string) Outcome {
	exists, err := s.store.Exists(ctx, tok)
	if err != nil {
		logger.Error("session store failed", "error", err)
		return fail(servicedef.MessageInternalError)
	}
	if exists {
		return fail(servicedef.MessageSessionExists)
	}
	if err := s.upstream.Auth(ctx, tok); err != nil {
		logger.Warn("upstream auth failed", "error", err)
		return fail(servicedef.MessageAuthFailed)
	}
	err = s.store.Create(ctx, Session{Token: tok, CreatedAt: s.now()})
	switch {
	case errors.Is(err, ErrSessionExists):
		return fail(servicedef.MessageSessionExists)
	case err != nil:
		logger.Error("session store failed", "error", err)
		return fail(servicedef.MessageInternalError)
	}
	logger.Info("session created")
	return ok()
}

func (s *Service) action(ctx context.Context, logger *slog.Logger, tok string) Outcome {
	exists, err := s.store.Exists(ctx, tok)
	if err != nil {
		logger.Error("session store failed", "error", err)
		return fail(servicedef.MessageInternalError)
	}
	if !exists {
		return fail(servicedef.MessageNoSession)
	}
	if err := s.upstream.DoAction(ctx, tok); err != nil {
		logger.Warn("upstream action failed", "error", err)
		return fail(servicedef.MessageActionFailed)
	}
	return ok()
}

func (s *Service) logout(ctx context.Context, logger *slog.Logger, tok string) Outcome {
	err := s.store.Delete(ctx, tok)
	switch {
	case errors.Is(err, ErrNoSession):
		return fail(servicedef.MessageNoSession)
	case err != nil:
		logger.Error("session store failed", "error", err)
		return fail(servicedef.MessageInternalError)
	}
	logger.Info("session deleted")
	return ok()
}

func (s *Service) validAPIKey(apiKey string) bool {
	return apiKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), s.secret) == 1
}

// ServeHTTP handles a protocol request. The outcome is always written with status 200.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		loggerFor(r.Context(), s.logger).Info("malformed request body", "error", err)
		writeOutcome(w, fail(servicedef.MessageMissingToken))
		return
	}
	outcome := s.Handle(r.Context(),
		r.Header.Get(servicedef.HeaderAPIKey),
		r.PostForm.Get(servicedef.FieldToken),
		servicedef.Action(r.PostForm.Get(servicedef.FieldAction)),
	)
	writeOutcome(w, outcome)
}
