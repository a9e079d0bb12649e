package sessions

import "time"

// KeySeparator joins user id and session id in a session record key. Prefix scans for
// logout-all depend on it, so it must not change.
const KeySeparator = " || "

// UnknownFingerprint is stored when the client sent no User-Agent.
const UnknownFingerprint = "UNKNOWN"

// Session describes one refresh session at issuance time.
type Session struct {
	UserID      string    `json:"userId"`
	SessionID   string    `json:"sessionId"`
	IssuedAt    time.Time `json:"issuedAt"`
	Fingerprint string    `json:"fingerprint"`
}

// TokenPair is what Issue and Rotate hand back to the client.
type TokenPair struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	Session Session `json:"-"`
}

// SessionKey returns the store key of a session record.
func SessionKey(userID, sessionID string) string {
	return userID + KeySeparator + sessionID
}

// UserPrefix returns the key prefix shared by every session record of a user.
func UserPrefix(userID string) string {
	return userID + KeySeparator
}
