package sessions

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionRevoked means the refresh token verified but its session record is gone:
	// logged out, logged out everywhere, or already rotated.
	ErrSessionRevoked = errors.New("session revoked")

	// ErrStoreUnavailable wraps every failure talking to the session store.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
