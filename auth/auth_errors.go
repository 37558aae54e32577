package auth

import (
	"errors"

	"github.com/gatekit/gatekit/codes"
	"github.com/gatekit/gatekit/sessions"
)

// Flow failure taxonomy surfaced to the gateway. The gateway maps these to
// HTTP statuses with errors.Is and never exposes internal detail beyond
// the short reason string.
var (
	UserExistsErr         = errors.New("user already exists")
	CredentialMismatchErr = errors.New("could not sign in") // merges "no such user" and "wrong password"
	DeliveryFailedErr     = errors.New("could not deliver code")
	StateMismatchErr      = errors.New("oauth state mismatch")
	UpstreamProviderErr   = errors.New("upstream provider error")

	// Raised by the stores, re-exported here so callers hold one taxonomy.
	InvalidCodeErr    = codes.ErrInvalidCode
	ExpiredCodeErr    = codes.ErrExpiredCode
	InvalidSessionErr = sessions.ErrInvalidSession
)
