package tokens

import "errors"

var (
	// ErrInvalidToken covers signature mismatch, malformed input, a foreign algorithm
	// and claims that do not describe a gateway token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned once the clock reaches the token's expiry.
	ErrExpiredToken = errors.New("token expired")

	// ErrEncoding is returned when a token cannot be signed.
	ErrEncoding = errors.New("token encoding failed")
)
