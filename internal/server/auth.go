package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxUserID = "user_id"

// IssueToken signs an HS256 token whose subject is userID. A zero ttl issues
// a token without expiry.
func IssueToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("issue token: empty secret")
	}
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("issue token: empty user id")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   "cadence",
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// ParseToken verifies tok against secret and returns its subject.
func ParseToken(secret []byte, tok string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func extractBearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth rejects requests without a valid bearer token and stores the
// token subject on the context.
func requireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := extractBearer(c)
		if tok == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing bearer token"))
			return
		}

		userID, err := ParseToken(secret, tok)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid token"))
			return
		}

		c.Set(ctxUserID, userID)
		c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
