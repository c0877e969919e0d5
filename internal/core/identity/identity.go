// Package identity models who the engine is saving progress for and how a
// signed-in identity is obtained.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Mode selects the persistence backend.
type Mode string

const (
	ModeLocal    Mode = "local"
	ModeSignedIn Mode = "signed-in"
)

// Identity is the current session owner.
type Identity struct {
	Mode      Mode      `json:"mode"`
	UserID    string    `json:"userId,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Local is the anonymous, device-only identity.
func Local() Identity { return Identity{Mode: ModeLocal} }

// SignedIn reports whether the identity talks to the remote store.
func (id Identity) SignedIn() bool { return id.Mode == ModeSignedIn }

// Keyspace is the local KV namespace for this identity. Local and each
// signed-in user get disjoint namespaces.
func (id Identity) Keyspace() string {
	if id.SignedIn() {
		return "user:" + id.UserID
	}
	return "local"
}

// Expired reports whether a signed-in token has passed its expiry.
func (id Identity) Expired(now time.Time) bool {
	return id.SignedIn() && !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

func (id Identity) String() string {
	if id.SignedIn() {
		return "user " + id.UserID
	}
	return "local"
}

// AuthError is returned when sign-in fails.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sign in: %s: %v", e.Reason, e.Err)
	}
	return "sign in: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrCancelled is wrapped by AuthError when the caller gives up on sign-in.
var ErrCancelled = errors.New("sign in cancelled")

// Authenticator obtains a signed-in identity.
type Authenticator interface {
	SignIn(ctx context.Context) (Identity, error)
}

// TokenSource supplies a bearer token, e.g. from a flag, env var or prompt.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func(context.Context) (string, error) { return tok, nil }
}

// TokenAuthenticator turns a bearer token issued by the remote API into an
// identity. The token is decoded without verifying its signature; the remote
// API verifies it on every request.
type TokenAuthenticator struct {
	Source  TokenSource
	Timeout time.Duration
	Now     func() time.Time
}

var _ Authenticator = (*TokenAuthenticator)(nil)

func (a *TokenAuthenticator) SignIn(ctx context.Context) (Identity, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	type result struct {
		tok string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		tok, err := a.Source(ctx)
		ch <- result{tok, err}
	}()

	cancelled := func() error {
		return &AuthError{Reason: "no token received", Err: errors.Join(ErrCancelled, ctx.Err())}
	}

	var tok string
	select {
	case <-ctx.Done():
		return Identity{}, cancelled()
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil {
				return Identity{}, cancelled()
			}
			return Identity{}, &AuthError{Reason: "token source failed", Err: r.err}
		}
		tok = strings.TrimSpace(r.tok)
	}

	return a.parse(tok)
}

func (a *TokenAuthenticator) parse(tok string) (Identity, error) {
	if tok == "" {
		return Identity{}, &AuthError{Reason: "empty token"}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return Identity{}, &AuthError{Reason: "malformed token", Err: err}
	}
	if claims.Subject == "" {
		return Identity{}, &AuthError{Reason: "token has no subject"}
	}

	id := Identity{Mode: ModeSignedIn, UserID: claims.Subject, Token: tok}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
		now := time.Now
		if a.Now != nil {
			now = a.Now
		}
		if id.Expired(now()) {
			return Identity{}, &AuthError{Reason: "token expired"}
		}
	}
	return id, nil
}
