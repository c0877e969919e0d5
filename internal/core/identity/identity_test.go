package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func token(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: sub}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestKeyspace(t *testing.T) {
	assert.Equal(t, "local", Local().Keyspace())
	assert.Equal(t, "user:u1", Identity{Mode: ModeSignedIn, UserID: "u1"}.Keyspace())
	assert.NotEqual(t, Local().Keyspace(), Identity{Mode: ModeSignedIn, UserID: "local"}.Keyspace())
}

func TestTokenAuthenticator(t *testing.T) {
	tests := []struct {
		name    string
		tok     string
		wantErr string
		userID  string
	}{
		{"valid", token(t, "u1", now.Add(time.Hour)), "", "u1"},
		{"no expiry", token(t, "u2", time.Time{}), "", "u2"},
		{"expired", token(t, "u1", now.Add(-time.Minute)), "token expired", ""},
		{"no subject", token(t, "", now.Add(time.Hour)), "no subject", ""},
		{"garbage", "not-a-jwt", "malformed token", ""},
		{"empty", "  ", "empty token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &TokenAuthenticator{Source: StaticToken(tt.tok), Now: func() time.Time { return now }}
			id, err := a.SignIn(context.Background())
			if tt.wantErr != "" {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Contains(t, authErr.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, id.SignedIn())
			assert.Equal(t, tt.userID, id.UserID)
			assert.Equal(t, tt.tok, id.Token)
		})
	}
}

func TestTokenAuthenticator_Timeout(t *testing.T) {
	blocked := func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	a := &TokenAuthenticator{Source: blocked, Timeout: 10 * time.Millisecond}

	_, err := a.SignIn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenAuthenticator_SourceError(t *testing.T) {
	boom := errors.New("prompt closed")
	a := &TokenAuthenticator{Source: func(context.Context) (string, error) { return "", boom }}

	_, err := a.SignIn(context.Background())
	assert.ErrorIs(t, err, boom)
}
