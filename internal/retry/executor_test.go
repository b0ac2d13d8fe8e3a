package retry_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cmsimport/internal/retry"
	"cmsimport/internal/services"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newExecutor(sleeper *recordingSleeper, opts ...retry.Option) *retry.Executor {
	opts = append(opts, retry.WithSleeper(sleeper.sleep))
	return retry.NewExecutor(retry.DefaultPolicy(), opts...)
}

func marked(marker error) error {
	return services.Wrap(marker, "cms", "update", "test failure", nil)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	sleeper := &recordingSleeper{}
	attempts, err := newExecutor(sleeper).Do(context.Background(), "update", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if attempts != 1 || len(sleeper.delays) != 0 {
		t.Fatalf("attempts=%d sleeps=%d, want 1 and 0", attempts, len(sleeper.delays))
	}
}

func TestDoTimeoutExhaustsAtMaxAttempts(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	attempts, err := newExecutor(sleeper).Do(context.Background(), "add", func(context.Context) error {
		calls++
		return marked(services.ErrTimeout)
	})
	if calls != 10 || attempts != 10 {
		t.Fatalf("calls=%d attempts=%d, want 10", calls, attempts)
	}
	var retryErr *retry.Error
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected *retry.Error, got %T", err)
	}
	if retryErr.Class != retry.ClassTimeout || retryErr.Attempts != 10 {
		t.Fatalf("unexpected error detail: %+v", retryErr)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatal("expected cause to remain inspectable")
	}
	if len(sleeper.delays) != 9 {
		t.Fatalf("expected 9 pauses between 10 attempts, got %d", len(sleeper.delays))
	}
	for _, d := range sleeper.delays {
		if d != retry.DefaultTimeoutDelay {
			t.Fatalf("unexpected timeout delay %v", d)
		}
	}
}

func TestDoTimeoutRecovers(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	attempts, err := newExecutor(sleeper).Do(context.Background(), "add", func(context.Context) error {
		calls++
		if calls < 4 {
			return marked(services.ErrTimeout)
		}
		return nil
	})
	if err != nil || attempts != 4 {
		t.Fatalf("attempts=%d err=%v, want 4 and nil", attempts, err)
	}
}

func TestDoAuthorizationReauthenticatesOnce(t *testing.T) {
	sleeper := &recordingSleeper{}
	reauths := 0
	exec := newExecutor(sleeper, retry.WithReauth(func(context.Context) error {
		reauths++
		return nil
	}))

	calls := 0
	attempts, err := exec.Do(context.Background(), "update", func(context.Context) error {
		calls++
		if calls == 1 {
			return marked(services.ErrAuthorization)
		}
		return nil
	})
	if err != nil || attempts != 2 || reauths != 1 {
		t.Fatalf("attempts=%d reauths=%d err=%v", attempts, reauths, err)
	}

	calls = 0
	reauths = 0
	attempts, err = exec.Do(context.Background(), "update", func(context.Context) error {
		calls++
		return marked(services.ErrAuthorization)
	})
	if retry.ClassOf(err) != retry.ClassAuthorization {
		t.Fatalf("expected authorization failure, got %v", err)
	}
	if attempts != 2 || reauths != 1 {
		t.Fatalf("repeat fault: attempts=%d reauths=%d, want 2 and 1", attempts, reauths)
	}
}

func TestDoAuthorizationRetriesOnceWhenReauthFails(t *testing.T) {
	sleeper := &recordingSleeper{}
	reauths := 0
	exec := newExecutor(sleeper, retry.WithReauth(func(context.Context) error {
		reauths++
		return errors.New("provider down")
	}))
	calls := 0
	attempts, err := exec.Do(context.Background(), "update", func(context.Context) error {
		calls++
		return marked(services.ErrAuthorization)
	})
	if reauths != 1 || calls != 2 || attempts != 2 {
		t.Fatalf("reauths=%d calls=%d attempts=%d, want 1, 2 and 2", reauths, calls, attempts)
	}
	if retry.ClassOf(err) != retry.ClassAuthorization || !errors.Is(err, services.ErrAuthorization) {
		t.Fatalf("unexpected error %v", err)
	}
	msg := err.Error()
	if strings.Contains(msg, "\n") {
		t.Fatalf("error message spans lines: %q", msg)
	}
	if !strings.Contains(msg, "provider down") {
		t.Fatalf("expected the reauthentication failure in %q", msg)
	}
}

func TestDoAuthorizationRecoversAfterFailedReauth(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := newExecutor(sleeper, retry.WithReauth(func(context.Context) error {
		return errors.New("provider down")
	}))
	calls := 0
	attempts, err := exec.Do(context.Background(), "update", func(context.Context) error {
		calls++
		if calls == 1 {
			return marked(services.ErrAuthorization)
		}
		return nil
	})
	if err != nil || attempts != 2 {
		t.Fatalf("attempts=%d err=%v, want 2 and nil", attempts, err)
	}
}

func TestDoCommunicationRetriesOnceAfterDelay(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	attempts, err := newExecutor(sleeper).Do(context.Background(), "search", func(context.Context) error {
		calls++
		return marked(services.ErrCommunication)
	})
	if attempts != 2 || calls != 2 {
		t.Fatalf("attempts=%d calls=%d, want 2", attempts, calls)
	}
	if retry.ClassOf(err) != retry.ClassCommunication {
		t.Fatalf("unexpected class for %v", err)
	}
	if len(sleeper.delays) != 1 || sleeper.delays[0] != retry.DefaultCommunicationDelay {
		t.Fatalf("unexpected pauses %v", sleeper.delays)
	}
}

func TestDoClassesHaveIndependentBudgets(t *testing.T) {
	sleeper := &recordingSleeper{}
	sequence := []error{
		marked(services.ErrTimeout),
		marked(services.ErrCommunication),
		marked(services.ErrAuthorization),
		marked(services.ErrTimeout),
		nil,
	}
	calls := 0
	exec := newExecutor(sleeper, retry.WithReauth(func(context.Context) error { return nil }))
	attempts, err := exec.Do(context.Background(), "add", func(context.Context) error {
		next := sequence[calls]
		calls++
		return next
	})
	if err != nil || attempts != len(sequence) {
		t.Fatalf("attempts=%d err=%v", attempts, err)
	}
}

func TestDoFatalFailsImmediately(t *testing.T) {
	sleeper := &recordingSleeper{}
	boom := errors.New("bad request")
	attempts, err := newExecutor(sleeper).Do(context.Background(), "add", func(context.Context) error {
		return fmt.Errorf("add content: %w", boom)
	})
	if attempts != 1 || !errors.Is(err, boom) || retry.ClassOf(err) != retry.ClassFatal {
		t.Fatalf("attempts=%d err=%v", attempts, err)
	}
}

func TestDoStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	exec := retry.NewExecutor(retry.DefaultPolicy())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	attempts, err := exec.Do(ctx, "add", func(context.Context) error {
		calls++
		return marked(services.ErrTimeout)
	})
	if time.Since(start) > time.Second {
		t.Fatal("expected cancellation to interrupt the retry pause")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if attempts != 1 || calls != 1 {
		t.Fatalf("attempts=%d calls=%d, want 1", attempts, calls)
	}
	if strings.Contains(err.Error(), "\n") {
		t.Fatalf("error message spans lines: %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want retry.Class
	}{
		{marked(services.ErrTimeout), retry.ClassTimeout},
		{marked(services.ErrAuthorization), retry.ClassAuthorization},
		{marked(services.ErrCommunication), retry.ClassCommunication},
		{marked(services.ErrNotFound), retry.ClassFatal},
		{context.Canceled, retry.ClassFatal},
		{errors.New("plain"), retry.ClassFatal},
	}
	for _, tc := range tests {
		if got := retry.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
