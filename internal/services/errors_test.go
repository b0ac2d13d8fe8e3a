package services_test

import (
	"errors"
	"strings"
	"testing"

	"cmsimport/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTimeout, "cms", "add content", "request timed out", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"cms", "add content", "request timed out"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrCommunication) {
		t.Fatalf("expected communication marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrTimeout, "cms", "search", "", nil), "timeout"},
		{services.Wrap(services.ErrAuthorization, "cms", "update", "", nil), "authorization"},
		{services.Wrap(services.ErrCommunication, "cms", "add", "", nil), "communication"},
		{services.Wrap(services.ErrNotFound, "cms", "folder", "", nil), "not_found"},
		{services.Wrap(services.ErrValidation, "cms", "add", "", nil), "validation"},
		{errors.New("plain"), "other"},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
