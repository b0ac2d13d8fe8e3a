// Package auth holds the shared credential used for remote store calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cmsimport/internal/logging"
)

// ErrInProgress is returned by Authenticate when another caller already has a
// request in flight.
var ErrInProgress = errors.New("authentication already in progress")

// Provider exchanges credentials for a token.
type Provider interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Authenticator caches a token shared by every worker of a destination.
//
// At most one provider request runs at a time. A caller that arrives while a
// request is in flight does not wait for it: Authenticate returns
// ErrInProgress immediately and the caller proceeds with whatever token is
// currently held. Token and HasAuthentication never block on the provider.
// There is no expiry; the token is replaced only after a fault triggers
// Authenticate again.
type Authenticator struct {
	provider Provider
	username string
	password string
	logger   *slog.Logger

	tokenMu sync.RWMutex
	token   string

	flightMu sync.Mutex
	inFlight bool
}

// New constructs an authenticator. It does not contact the provider.
func New(provider Provider, username, password string, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		provider: provider,
		username: username,
		password: password,
		logger:   logging.NewComponentLogger(logger, "auth"),
	}
}

// Authenticate requests a fresh token. On provider failure the previous token
// is kept and the error is returned.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	if a == nil || a.provider == nil {
		return errors.New("authenticator not configured")
	}

	a.flightMu.Lock()
	if a.inFlight {
		a.flightMu.Unlock()
		a.logger.Debug("authentication already in flight; not waiting")
		return ErrInProgress
	}
	a.inFlight = true
	a.flightMu.Unlock()

	defer func() {
		a.flightMu.Lock()
		a.inFlight = false
		a.flightMu.Unlock()
	}()

	a.logger.Info("authenticating", logging.String("username", a.username))
	token, err := a.provider.Authenticate(ctx, a.username, a.password)
	if err != nil {
		logging.WarnWithContext(a.logger, "authentication failed", "auth_failed",
			logging.String("username", a.username),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify cms.username and cms.password"),
			logging.String(logging.FieldImpact, "remote calls keep using the previous token"),
		)
		return fmt.Errorf("authenticate %s: %w", a.username, err)
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("authenticate %s: provider returned an empty token", a.username)
	}

	a.tokenMu.Lock()
	a.token = token
	a.tokenMu.Unlock()
	return nil
}

// Reauthenticate adapts Authenticate for retry hooks: an in-flight request
// elsewhere counts as success because its token will be picked up on the
// next attempt.
func (a *Authenticator) Reauthenticate(ctx context.Context) error {
	err := a.Authenticate(ctx)
	if errors.Is(err, ErrInProgress) {
		return nil
	}
	return err
}

// HasAuthentication reports whether a non-empty token is held.
func (a *Authenticator) HasAuthentication() bool {
	return strings.TrimSpace(a.Token()) != ""
}

// Token returns the current token, possibly empty.
func (a *Authenticator) Token() string {
	if a == nil {
		return ""
	}
	a.tokenMu.RLock()
	defer a.tokenMu.RUnlock()
	return a.token
}
