// Package persist defines the storage contract the sync engine saves through
// and the typed failures every backend reports.
package persist

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/progress"
)

// Adapter loads and saves a user's whole progress document.
type Adapter interface {
	Load(ctx context.Context) (progress.Data, error)
	Save(ctx context.Context, data progress.Data) error
	Name() string
}

// Selector picks the adapter for an identity.
type Selector interface {
	Select(id identity.Identity) (Adapter, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(id identity.Identity) (Adapter, error)

func (f SelectorFunc) Select(id identity.Identity) (Adapter, error) { return f(id) }

// ErrNoData is returned by storage layers that hold no document for a key.
// Adapters translate it into an empty load.
var ErrNoData = errors.New("no stored progress")

// Kind classifies a persistence failure.
type Kind string

const (
	KindAuth    Kind = "auth"
	KindServer  Kind = "server"
	KindNetwork Kind = "network"
	KindStorage Kind = "storage"
	KindOther   Kind = "other"
)

// Error is a typed persistence failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels so errors.Is(err, ErrAuthFailed) works for
// any *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == 0 && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrAuthFailed = &Error{Kind: KindAuth}
	ErrServer     = &Error{Kind: KindServer}
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrStorage    = &Error{Kind: KindStorage}
)

// KindOf returns the kind of err, or KindOther when err is not a *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// FromStatus classifies a non-2xx HTTP response: 401 is auth, 5xx is server
// and everything else is other with the status text.
func FromStatus(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindAuth, Status: status, Message: message}
	case status >= 500:
		return &Error{Kind: KindServer, Status: status, Message: message}
	default:
		return &Error{Kind: KindOther, Status: status, Message: message}
	}
}

// Network wraps a transport failure.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// Storage wraps a local storage failure.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Err: err}
}
