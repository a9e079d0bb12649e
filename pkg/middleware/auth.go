package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/authgw/gateway/internal/sessions"
	"github.com/authgw/gateway/internal/tokens"
	"github.com/authgw/gateway/internal/upstream"
	"github.com/authgw/gateway/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const tokenKey = "refresh_token_claims"

// ErrMissingToken means the request carried no refresh token at all.
var ErrMissingToken = errors.New("refresh token missing")

// Authenticator verifies a refresh token against a live session without consuming it.
type Authenticator interface {
	Authenticate(ctx context.Context, refreshToken string) (*tokens.Token, error)
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken reads the refresh token from the JSON body field refresh_token, falling back
// to an Authorization: Bearer header. The body is cached so handlers can bind it again.
func RefreshToken(c *gin.Context) (string, error) {
	if c.Request.Body != nil {
		var body refreshBody
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil && body.RefreshToken != "" {
			return body.RefreshToken, nil
		}
	}
	auth := c.GetHeader("Authorization")
	if auth != "" {
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n == 1 && token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

// RefreshAuth guards routes that act on the caller's session. On success the verified
// token is available through TokenFromContext.
func RefreshAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := RefreshToken(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		tok, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(tokenKey, tok)
		c.Next()
	}
}

// TokenFromContext returns the token stored by RefreshAuth.
func TokenFromContext(c *gin.Context) (*tokens.Token, bool) {
	v, ok := c.Get(tokenKey)
	if !ok {
		return nil, false
	}
	tok, ok := v.(*tokens.Token)
	return tok, ok && tok != nil
}

// StatusForError maps gateway errors to an HTTP status and a client-safe message.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingToken):
		return http.StatusForbidden, "refresh token missing"
	case errors.Is(err, tokens.ErrExpiredToken):
		return http.StatusForbidden, "token expired"
	case errors.Is(err, tokens.ErrInvalidToken):
		return http.StatusNotFound, "invalid token"
	case errors.Is(err, sessions.ErrSessionRevoked):
		return http.StatusForbidden, "session revoked"
	case errors.Is(err, sessions.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "session store unavailable"
	case errors.Is(err, upstream.ErrUnavailable):
		return http.StatusBadGateway, "upstream service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// AbortWithError writes the mapped error response. Server-side failures are logged with
// their full chain; the client only sees the generic message.
func AbortWithError(c *gin.Context, err error) {
	status, msg := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
