package git

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Typed clone failures enabling structured handling without string
// parsing upstream. Auth, not-found, and protocol errors are
// permanent; timeouts are transient and retried.
type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth failed for %s: %v", e.Op, e.URL, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s repository not found %s: %v", e.Op, e.URL, e.Err)
}
func (e *NotFoundError) Unwrap() error { return e.Err }

type ProtocolError struct {
	Op, URL string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *ProtocolError) Unwrap() error { return e.Err }

type TimeoutError struct {
	Op, URL string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out for %s: %v", e.Op, e.URL, e.Err)
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// DivergedError means the remote history no longer fast-forwards from
// the local clone. Retrying cannot fix it; callers reclone instead.
type DivergedError struct {
	Op, URL, Branch string
	Err             error
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("%s remote diverged %s@%s: %v", e.Op, e.URL, e.Branch, e.Err)
}
func (e *DivergedError) Unwrap() error { return e.Err }

// Classify wraps a go-git failure into a typed variant. Sentinel
// checks run first; the string fallbacks cover transport errors that
// surface as plain messages.
func Classify(op, url string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return &AuthError{Op: op, URL: url, Err: err}
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return &NotFoundError{Op: op, URL: url, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Op: op, URL: url, Err: err}
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		return &AuthError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "repository not found") || strings.Contains(l, "does not exist"):
		return &NotFoundError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "unsupported scheme") || strings.Contains(l, "unsupported protocol") || strings.Contains(l, "unknown protocol"):
		return &ProtocolError{Op: op, URL: url, Err: err}
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") || strings.Contains(l, "connection refused") || strings.Contains(l, "no route to host") || strings.Contains(l, "temporary failure"):
		return &TimeoutError{Op: op, URL: url, Err: err}
	default:
		return err
	}
}

// IsPermanent reports whether a classified error must not be retried.
func IsPermanent(err error) bool {
	var (
		authErr     *AuthError
		notFound    *NotFoundError
		protocolErr *ProtocolError
		diverged    *DivergedError
	)
	if errors.As(err, &authErr) || errors.As(err, &notFound) || errors.As(err, &protocolErr) || errors.As(err, &diverged) {
		return true
	}
	return errors.Is(err, context.Canceled)
}
