package tokens

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{
	Secret:          "test-secret-32-bytes-should-be-long-enough",
	Algorithm:       "HS256",
	AccessTokenTTL:  2 * time.Minute,
	RefreshTokenTTL: time.Hour,
}

func segment(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

type fixedClock struct{ t time.Time }

func (f *fixedClock) now() time.Time { return f.t }

func newTestCodec(t *testing.T, clock *fixedClock) *Codec {
	t.Helper()
	c, err := NewCodec(testJWT, WithClock(clock.now))
	require.NoError(t, err)
	return c
}

func TestPair_SharesSubjectAndSession(t *testing.T) {
	clock := &fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)}
	c := newTestCodec(t, clock)
	id := models.Identity{ID: "u1", Email: "u1@example.com"}

	access, refresh := c.Pair(id, "s1", clock.t)
	require.Equal(t, access.Subject, refresh.Subject)
	require.Equal(t, "s1", access.SessionID)
	require.Equal(t, "s1", refresh.SessionID)
	require.Equal(t, KindAccess, access.Kind)
	require.Equal(t, KindRefresh, refresh.Kind)
	require.Equal(t, access.IssuedAt.Add(2*time.Minute), access.ExpiresAt)
	require.Equal(t, refresh.IssuedAt.Add(time.Hour), refresh.ExpiresAt)
	require.Zero(t, access.IssuedAt.Nanosecond())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	id := models.Identity{ID: "user-123", Email: "test@example.com"}

	for _, tok := range func() []Token { a, r := c.Pair(id, "sess-1", clock.t); return []Token{a, r} }() {
		raw, err := c.Encode(tok)
		require.NoError(t, err)

		got, err := c.Decode(raw)
		require.NoError(t, err)
		require.Equal(t, tok.Subject, got.Subject)
		require.Equal(t, tok.SessionID, got.SessionID)
		require.Equal(t, tok.Kind, got.Kind)
		require.True(t, tok.IssuedAt.Equal(got.IssuedAt))
		require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
	}
}

func TestEncode_Deterministic(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	a, _ := c.Pair(models.Identity{ID: "u", Email: "u@x"}, "s", clock.t)

	first, err := c.Encode(a)
	require.NoError(t, err)
	second, err := c.Encode(a)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDecode_ExpiryBoundary(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	access, _ := c.Pair(models.Identity{ID: "u", Email: "u@x"}, "s", clock.t)
	raw, err := c.Encode(access)
	require.NoError(t, err)

	clock.t = access.ExpiresAt.Add(-time.Second)
	_, err = c.Decode(raw)
	require.NoError(t, err)

	clock.t = access.ExpiresAt
	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrExpiredToken)

	clock.t = access.ExpiresAt.Add(time.Hour)
	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrExpiredToken)
	require.False(t, errors.Is(err, ErrInvalidToken))
}

func TestDecode_WrongSecretFails(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	other, err := NewCodec(config.JWTConfig{Secret: "different-secret-xxxxxxxxxxxxxxxx", Algorithm: "HS256", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}, WithClock(clock.now))
	require.NoError(t, err)

	_, refresh := other.Pair(models.Identity{ID: "u3", Email: "bob@example.com"}, "s", clock.t)
	raw, err := other.Encode(refresh)
	require.NoError(t, err)

	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_Malformed(t *testing.T) {
	c := newTestCodec(t, &fixedClock{t: time.Now()})
	_, err := c.Decode("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = c.Decode("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_AlgNoneRejected(t *testing.T) {
	c := newTestCodec(t, &fixedClock{t: time.Now()})
	payload := `{"id":"u-none","email":"x@x","token_type":"refresh","sub":"u-none","jti":"s","iat":1,"exp":9999999999}`
	tok := segment([]byte(`{"alg":"none"}`)) + "." + segment([]byte(payload)) + "."

	_, err := c.Decode(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_OtherAlgorithmRejected(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	cfg := testJWT
	cfg.Algorithm = "HS512"
	hs512, err := NewCodec(cfg, WithClock(clock.now))
	require.NoError(t, err)
	require.Equal(t, "HS256", c.Algorithm())
	require.Equal(t, "HS512", hs512.Algorithm())

	access, _ := hs512.Pair(models.Identity{ID: "u", Email: "u@x"}, "s", clock.t)
	raw, err := hs512.Encode(access)
	require.NoError(t, err)

	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_TamperedPayload(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	access, _ := c.Pair(models.Identity{ID: "user-t", Email: "t@example.com"}, "s", clock.t)
	raw, err := c.Encode(access)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	parts[1] = segment([]byte(strings.ReplaceAll(string(payload), "user-t", "attacker")))

	_, err = c.Decode(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecode_UnknownTokenType(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	c := newTestCodec(t, clock)
	access, _ := c.Pair(models.Identity{ID: "u", Email: "u@x"}, "s", clock.t)
	access.Kind = "id"
	raw, err := c.Encode(access)
	require.NoError(t, err)

	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewCodec_RejectsBadSettings(t *testing.T) {
	cfg := testJWT
	cfg.Algorithm = "RS256"
	_, err := NewCodec(cfg)
	require.Error(t, err)

	cfg = testJWT
	cfg.Secret = ""
	_, err = NewCodec(cfg)
	require.Error(t, err)
}
