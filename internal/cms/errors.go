package cms

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"cmsimport/internal/services"
)

// StatusError reports a non-success HTTP response with no retry marker.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cms: %s failed (%s)", e.Op, e.Status)
	}
	return fmt.Sprintf("cms: %s failed (%s): %s", e.Op, e.Status, e.Body)
}

func classifyStatus(op string, code int, status, body string, lookup bool) error {
	statusErr := &StatusError{Op: op, StatusCode: code, Status: status, Body: body}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrAuthorization, "cms", op, status, statusErr)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return services.Wrap(services.ErrTimeout, "cms", op, status, statusErr)
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return services.Wrap(services.ErrCommunication, "cms", op, status, statusErr)
	case http.StatusNotFound:
		if lookup {
			return services.Wrap(services.ErrNotFound, "cms", op, status, statusErr)
		}
	}
	return statusErr
}

func classifyTransportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return fmt.Errorf("cms: %s: %w", op, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "cms", op, "deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "cms", op, "request timed out", err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return services.Wrap(services.ErrCommunication, "cms", op, "connection failed", err)
	}
	return services.Wrap(services.ErrCommunication, "cms", op, "request failed", err)
}
