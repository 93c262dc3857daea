package git

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "dial tcp 10.0.0.1:443" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want any
	}{
		{"auth sentinel", transport.ErrAuthenticationRequired, new(*AuthError)},
		{"authz sentinel wrapped", fmt.Errorf("clone: %w", transport.ErrAuthorizationFailed), new(*AuthError)},
		{"not found sentinel", transport.ErrRepositoryNotFound, new(*NotFoundError)},
		{"empty remote", transport.ErrEmptyRemoteRepository, new(*NotFoundError)},
		{"auth message", errors.New("authentication failed for origin"), new(*AuthError)},
		{"not found message", errors.New("remote: repository does not exist"), new(*NotFoundError)},
		{"scheme message", errors.New(`unsupported scheme "ftp"`), new(*ProtocolError)},
		{"timeout message", errors.New("dial tcp: i/o timeout"), new(*TimeoutError)},
		{"net timeout", fakeTimeout{}, new(*TimeoutError)},
		{"connection refused", errors.New("connect: connection refused"), new(*TimeoutError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("clone", "https://example.com/r.git", tt.err)
			if !errors.As(got, tt.want) {
				t.Fatalf("Classify(%v) = %T, want %T", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatalf("classified error must wrap the cause")
			}
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	if Classify("clone", "u", nil) != nil {
		t.Fatal("nil must stay nil")
	}
	plain := errors.New("object not parsed")
	if got := Classify("clone", "u", plain); got != plain {
		t.Fatalf("unrecognized errors pass through, got %v", got)
	}
}

func TestIsPermanent(t *testing.T) {
	cause := errors.New("x")
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth", &AuthError{Op: "clone", URL: "u", Err: cause}, true},
		{"not found", &NotFoundError{Op: "clone", URL: "u", Err: cause}, true},
		{"protocol", &ProtocolError{Op: "clone", URL: "u", Err: cause}, true},
		{"diverged", &DivergedError{Op: "update", URL: "u", Branch: "main", Err: cause}, true},
		{"timeout", &TimeoutError{Op: "clone", URL: "u", Err: cause}, false},
		{"plain", cause, false},
		{"canceled", context.Canceled, true},
		{"wrapped auth", fmt.Errorf("outer: %w", &AuthError{Op: "clone", URL: "u", Err: cause}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Fatalf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
