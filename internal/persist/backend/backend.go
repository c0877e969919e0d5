// Package backend chooses the persistence adapter for an identity.
package backend

import (
	"errors"
	"net/http"
	"time"

	"github.com/colonyops/cadence/internal/core/identity"
	"github.com/colonyops/cadence/internal/core/kv"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/persist/local"
	"github.com/colonyops/cadence/internal/persist/mirror"
	"github.com/colonyops/cadence/internal/persist/remote"
	"github.com/rs/zerolog"
)

// ErrNoRemote is returned when a signed-in identity is selected but no
// remote base URL is configured.
var ErrNoRemote = errors.New("remote base url is not configured")

// Selector maps local identities to the KV store and signed-in identities to
// the remote API mirrored into their own KV keyspace.
type Selector struct {
	KV         kv.KV
	RemoteURL  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        zerolog.Logger
}

var _ persist.Selector = (*Selector)(nil)

func (s *Selector) Select(id identity.Identity) (persist.Adapter, error) {
	cache := local.New(s.KV, id.Keyspace())
	if !id.SignedIn() {
		return cache, nil
	}
	if s.RemoteURL == "" {
		return nil, ErrNoRemote
	}

	rem := remote.New(remote.Config{
		BaseURL: s.RemoteURL,
		Token:   id.Token,
		Timeout: s.Timeout,
	}, s.HTTPClient, s.Log)

	return mirror.New(rem, cache, s.Log), nil
}
