package sessions

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/authgw/gateway/internal/audit"
	"github.com/authgw/gateway/internal/models"
	"github.com/authgw/gateway/internal/tokens"
	"github.com/authgw/gateway/pkg/logger"
	"github.com/authgw/gateway/pkg/metrics"
	"github.com/google/uuid"
)

const auditTimeout = 2 * time.Second

// Service issues, rotates and revokes refresh sessions. It is the only writer of session
// records; a record's presence under SessionKey(user, jti) is what keeps a refresh token
// usable.
type Service struct {
	store    Store
	codec    *tokens.Codec
	recorder audit.Recorder
	newID    func() string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the audit sink for lifecycle events.
func WithRecorder(r audit.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// WithClock sets the clock used for issued-at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, codec *tokens.Codec, opts ...Option) *Service {
	s := &Service{
		store:    store,
		codec:    codec,
		recorder: audit.LogRecorder{},
		newID:    NewSessionID,
		now:      codec.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns 128 random bits as 32 hex characters.
func NewSessionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Issue mints an access/refresh pair for a fresh session and persists its record.
// Tokens are returned only after the store has acknowledged the write; the write is not
// cancelled if the caller goes away mid-request.
func (s *Service) Issue(ctx context.Context, subject models.Identity, fingerprint string) (*TokenPair, error) {
	pair, err := s.issue(ctx, subject, fingerprint)
	if err != nil {
		return nil, err
	}
	metrics.SessionEvents.WithLabelValues(string(audit.EventIssued)).Inc()
	logger.Debugf("session issued: user=%s session=%s", subject.ID, pair.Session.SessionID)
	s.record(ctx, audit.Event{
		Type:        audit.EventIssued,
		UserID:      subject.ID,
		SessionID:   pair.Session.SessionID,
		Fingerprint: pair.Session.Fingerprint,
	})
	return pair, nil
}

func (s *Service) issue(ctx context.Context, subject models.Identity, fingerprint string) (*TokenPair, error) {
	if !subject.Valid() || strings.Contains(subject.ID, KeySeparator) {
		return nil, fmt.Errorf("sessions: invalid user id %q", subject.ID)
	}
	if fingerprint == "" {
		fingerprint = UnknownFingerprint
	}

	sid := s.newID()
	issuedAt := s.now()
	access, refresh := s.codec.Pair(subject, sid, issuedAt)

	accessRaw, err := s.codec.Encode(access)
	if err != nil {
		return nil, err
	}
	refreshRaw, err := s.codec.Encode(refresh)
	if err != nil {
		return nil, err
	}

	key := SessionKey(subject.ID, sid)
	if err := s.store.Put(context.WithoutCancel(ctx), key, fingerprint, s.codec.RefreshTTL()); err != nil {
		return nil, err
	}

	return &TokenPair{
		Access:  accessRaw,
		Refresh: refreshRaw,
		Session: Session{
			UserID:      subject.ID,
			SessionID:   sid,
			IssuedAt:    access.IssuedAt,
			Fingerprint: fingerprint,
		},
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The old record is consumed by an
// exclusive delete, so of several concurrent rotations of one token exactly one wins and
// the rest fail with ErrSessionRevoked.
func (s *Service) Rotate(ctx context.Context, refreshToken, fingerprint string) (*TokenPair, error) {
	tok, err := s.decodeRefresh(refreshToken)
	if err != nil {
		s.reject(rejectReason(err))
		return nil, err
	}

	ok, err := s.ValidateSessionExists(ctx, tok.Subject.ID, tok.SessionID)
	if err != nil {
		s.reject("store")
		return nil, err
	}
	if !ok {
		s.replayRejected(ctx, tok)
		return nil, ErrSessionRevoked
	}

	deleted, err := s.store.Delete(context.WithoutCancel(ctx), SessionKey(tok.Subject.ID, tok.SessionID))
	if err != nil {
		s.reject("store")
		return nil, err
	}
	if !deleted {
		s.replayRejected(ctx, tok)
		return nil, ErrSessionRevoked
	}

	pair, err := s.issue(ctx, tok.Subject, fingerprint)
	if err != nil {
		logger.Errorf("rotation of session %s for user %s lost its successor: %v", tok.SessionID, tok.Subject.ID, err)
		return nil, err
	}
	metrics.SessionEvents.WithLabelValues(string(audit.EventRotated)).Inc()
	logger.Debugf("session rotated: user=%s session=%s successor=%s", tok.Subject.ID, tok.SessionID, pair.Session.SessionID)
	s.record(ctx, audit.Event{
		Type:        audit.EventRotated,
		UserID:      tok.Subject.ID,
		SessionID:   tok.SessionID,
		Successor:   pair.Session.SessionID,
		Fingerprint: pair.Session.Fingerprint,
	})
	return pair, nil
}

// Authenticate verifies a refresh token and checks that its session is still live,
// without consuming it. Logout endpoints use it so a dead token cannot end other sessions.
func (s *Service) Authenticate(ctx context.Context, refreshToken string) (*tokens.Token, error) {
	tok, err := s.decodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	ok, err := s.ValidateSessionExists(ctx, tok.Subject.ID, tok.SessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionRevoked
	}
	return tok, nil
}

// Revoke deletes one session record. Revoking a session that is already gone is a no-op.
func (s *Service) Revoke(ctx context.Context, userID, sessionID string) error {
	deleted, err := s.store.Delete(ctx, SessionKey(userID, sessionID))
	if err != nil {
		return err
	}
	if deleted {
		metrics.SessionEvents.WithLabelValues(string(audit.EventRevoked)).Inc()
		s.record(ctx, audit.Event{Type: audit.EventRevoked, UserID: userID, SessionID: sessionID})
	}
	return nil
}

// RevokeAll deletes every session record of the user and returns how many were removed.
func (s *Service) RevokeAll(ctx context.Context, userID string) (int, error) {
	if userID == "" || strings.Contains(userID, KeySeparator) {
		return 0, fmt.Errorf("sessions: invalid user id %q", userID)
	}
	n, err := s.store.ScanDelete(ctx, UserPrefix(userID))
	if err != nil {
		return n, err
	}
	metrics.SessionEvents.WithLabelValues(string(audit.EventRevokedAll)).Inc()
	logger.Infof("revoked %d session(s) for user %s", n, userID)
	s.record(ctx, audit.Event{Type: audit.EventRevokedAll, UserID: userID, Count: n})
	return n, nil
}

// ValidateSessionExists reports whether the session record is present.
func (s *Service) ValidateSessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	_, ok, err := s.store.Get(ctx, SessionKey(userID, sessionID))
	return ok, err
}

// Ping checks the session store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) decodeRefresh(raw string) (*tokens.Token, error) {
	tok, err := s.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	if tok.Kind != tokens.KindRefresh {
		return nil, fmt.Errorf("%w: %s token presented as refresh token", tokens.ErrInvalidToken, tok.Kind)
	}
	return tok, nil
}

func (s *Service) replayRejected(ctx context.Context, tok *tokens.Token) {
	s.reject("revoked")
	logger.Warnf("refresh rejected, session %s of user %s is not active", tok.SessionID, tok.Subject.ID)
	s.record(ctx, audit.Event{Type: audit.EventReplayRejected, UserID: tok.Subject.ID, SessionID: tok.SessionID})
}

func (s *Service) reject(reason string) {
	metrics.RotationRejected.WithLabelValues(reason).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrStoreUnavailable):
		return "store"
	default:
		return "invalid"
	}
}

// record forwards an event to the audit sink. Failures are logged and never surface.
func (s *Service) record(ctx context.Context, e audit.Event) {
	if s.recorder == nil {
		return
	}
	e.At = s.now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, e); err != nil {
		logger.Warnf("audit: failed to record %s event for user %s: %v", e.Type, e.UserID, err)
	}
}
