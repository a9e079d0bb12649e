package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Token is the verified content of a gateway token.
type Token struct {
	Subject   models.Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
	SessionID string
	Kind      Kind
}

// claims is the JWT payload. sub mirrors id so generic JWT tooling can read the subject.
type claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Kind  Kind   `json:"token_type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies gateway tokens with one process-wide secret and algorithm.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec from the JWT section of the configuration.
func NewCodec(cfg config.JWTConfig, opts ...Option) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("tokens: secret must not be empty")
	}
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	c := &Codec{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("tokens: unsupported signing algorithm %q", alg)
}

// Algorithm returns the configured algorithm name.
func (c *Codec) Algorithm() string { return c.method.Alg() }

// RefreshTTL is the lifetime of refresh tokens and of the session records backing them.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Now returns the codec clock.
func (c *Codec) Now() time.Time { return c.now() }

// Pair builds the access and refresh tokens for one session. Both share subject and
// session id; issuedAt is truncated to the second precision tokens carry on the wire.
func (c *Codec) Pair(subject models.Identity, sessionID string, issuedAt time.Time) (access, refresh Token) {
	iat := issuedAt.UTC().Truncate(time.Second)
	access = Token{
		Subject:   subject,
		IssuedAt:  iat,
		ExpiresAt: iat.Add(c.accessTTL),
		SessionID: sessionID,
		Kind:      KindAccess,
	}
	refresh = access
	refresh.ExpiresAt = iat.Add(c.refreshTTL)
	refresh.Kind = KindRefresh
	return access, refresh
}

// Encode signs the token.
func (c *Codec) Encode(t Token) (string, error) {
	cl := claims{
		ID:    t.Subject.ID,
		Email: t.Subject.Email,
		Kind:  t.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.Subject.ID,
			ID:        t.SessionID,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, cl).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return signed, nil
}

// Decode verifies signature, algorithm and expiry before returning any field.
func (c *Codec) Decode(raw string) (*Token, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if cl.ID == "" || cl.RegisteredClaims.ID == "" || cl.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}
	if cl.Subject != "" && cl.Subject != cl.ID {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	if cl.Kind != KindAccess && cl.Kind != KindRefresh {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrInvalidToken, cl.Kind)
	}

	return &Token{
		Subject:   models.Identity{ID: cl.ID, Email: cl.Email},
		IssuedAt:  cl.IssuedAt.Time.UTC(),
		ExpiresAt: cl.ExpiresAt.Time.UTC(),
		SessionID: cl.RegisteredClaims.ID,
		Kind:      cl.Kind,
	}, nil
}
