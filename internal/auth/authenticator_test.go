package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cmsimport/internal/auth"
)

type providerFunc func(ctx context.Context, username, password string) (string, error)

func (f providerFunc) Authenticate(ctx context.Context, username, password string) (string, error) {
	return f(ctx, username, password)
}

func TestAuthenticateStoresToken(t *testing.T) {
	provider := providerFunc(func(_ context.Context, username, password string) (string, error) {
		if username != "svc" || password != "pw" {
			t.Fatalf("unexpected credentials %q/%q", username, password)
		}
		return "tok-1", nil
	})
	a := auth.New(provider, "svc", "pw", nil)
	if a.HasAuthentication() {
		t.Fatal("expected no token before Authenticate")
	}
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if !a.HasAuthentication() || a.Token() != "tok-1" {
		t.Fatalf("unexpected token %q", a.Token())
	}
}

func TestAuthenticateFailureKeepsPreviousToken(t *testing.T) {
	var fail atomic.Bool
	provider := providerFunc(func(context.Context, string, string) (string, error) {
		if fail.Load() {
			return "", errors.New("idp unavailable")
		}
		return "good", nil
	})
	a := auth.New(provider, "svc", "pw", nil)
	if err := a.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	fail.Store(true)
	if err := a.Authenticate(context.Background()); err == nil {
		t.Fatal("expected provider error")
	}
	if a.Token() != "good" {
		t.Fatalf("expected previous token to survive, got %q", a.Token())
	}
}

func TestAuthenticateRejectsEmptyToken(t *testing.T) {
	a := auth.New(providerFunc(func(context.Context, string, string) (string, error) { return " ", nil }), "svc", "pw", nil)
	if err := a.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error for blank token")
	}
	if a.HasAuthentication() {
		t.Fatal("blank token must not count as authentication")
	}
}

func TestConcurrentAuthenticateDoesNotWait(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32
	provider := providerFunc(func(context.Context, string, string) (string, error) {
		calls.Add(1)
		close(entered)
		<-release
		return "fresh", nil
	})
	a := auth.New(provider, "svc", "pw", nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Authenticate(context.Background()); err != nil {
			t.Errorf("first Authenticate returned error: %v", err)
		}
	}()
	<-entered

	done := make(chan error, 1)
	go func() { done <- a.Authenticate(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, auth.ErrInProgress) {
			t.Fatalf("expected ErrInProgress, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second Authenticate blocked on the in-flight request")
	}

	readDone := make(chan bool, 1)
	go func() { readDone <- a.HasAuthentication() }()
	select {
	case has := <-readDone:
		if has {
			t.Fatal("no token should be held while the first request is pending")
		}
	case <-time.After(time.Second):
		t.Fatal("HasAuthentication blocked on the in-flight request")
	}

	if err := a.Reauthenticate(context.Background()); err != nil {
		t.Fatalf("Reauthenticate should treat in-flight as success, got %v", err)
	}

	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one provider call, got %d", calls.Load())
	}
	if a.Token() != "fresh" {
		t.Fatalf("unexpected token %q", a.Token())
	}
}

func TestNilProvider(t *testing.T) {
	a := auth.New(nil, "", "", nil)
	if err := a.Authenticate(context.Background()); err == nil {
		t.Fatal("expected error without provider")
	}
}
