package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cmsimport/internal/logging"
)

// Executor applies a Policy to remote operations. It is safe for concurrent use.
type Executor struct {
	policy Policy
	reauth func(context.Context) error
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithReauth installs the hook invoked once after an authorization fault.
func WithReauth(fn func(context.Context) error) Option {
	return func(e *Executor) {
		e.reauth = fn
	}
}

// WithSleeper overrides how retry pauses are performed (useful for tests).
func WithSleeper(fn func(context.Context, time.Duration) error) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor constructs an executor. Zero-valued policy fields take defaults.
func NewExecutor(policy Policy, opts ...Option) *Executor {
	if policy.MaxTimeoutAttempts <= 0 {
		policy.MaxTimeoutAttempts = DefaultMaxTimeoutAttempts
	}
	if policy.Classify == nil {
		policy.Classify = Classify
	}
	e := &Executor{
		policy: policy,
		sleep:  SleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "retry")
	return e
}

// Policy returns the effective policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Do runs fn until it succeeds or its failure class exhausts its budget. It
// returns the number of attempts made; a non-nil error is always *Error.
func (e *Executor) Do(ctx context.Context, op string, fn func(context.Context) error) (int, error) {
	var (
		attempts    int
		timeouts    int
		reauthed    bool
		reauthErr   error
		commRetried bool
	)
	logger := logging.WithContext(ctx, e.logger)

	for {
		if err := ctx.Err(); err != nil {
			return attempts, &Error{Op: op, Class: ClassFatal, Attempts: attempts, Err: err}
		}
		attempts++
		err := fn(ctx)
		if err == nil {
			return attempts, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempts, &Error{Op: op, Class: ClassFatal, Attempts: attempts, Err: fmt.Errorf("%w; %w", ctxErr, err)}
		}

		class := e.policy.Classify(err)
		fail := func() (int, error) {
			cause := err
			if class == ClassAuthorization && reauthErr != nil {
				cause = fmt.Errorf("%w; reauthentication: %v", err, reauthErr)
			}
			return attempts, &Error{Op: op, Class: class, Attempts: attempts, Err: cause}
		}

		var delay time.Duration
		switch class {
		case ClassTimeout:
			timeouts++
			if timeouts >= e.policy.MaxTimeoutAttempts {
				return fail()
			}
			delay = e.policy.TimeoutDelay
		case ClassAuthorization:
			if reauthed {
				return fail()
			}
			reauthed = true
			if e.reauth != nil {
				if reauthErr = e.reauth(ctx); reauthErr != nil {
					logging.WarnWithContext(logger, "reauthentication failed; retrying once", "reauth_failed",
						logging.String("operation", op),
						logging.Error(reauthErr),
						logging.String(logging.FieldErrorHint, "check CMS credentials"),
					)
				}
			}
		case ClassCommunication:
			if commRetried {
				return fail()
			}
			commRetried = true
			delay = e.policy.CommunicationDelay
		default:
			return fail()
		}

		logger.Debug("retrying remote operation",
			logging.String("operation", op),
			logging.String("class", class.String()),
			logging.Int(logging.FieldAttempts, attempts),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return attempts, &Error{Op: op, Class: ClassFatal, Attempts: attempts, Err: fmt.Errorf("%w; %w", sleepErr, err)}
		}
	}
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
