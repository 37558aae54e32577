// Package provider wraps third-party OAuth identity providers behind one
// capability: redirect a browser out with a state value, then turn the
// returned authorization code into a verified email address. Any failure
// during exchange or identity fetch is surfaced as an error the gateway
// treats as fail-closed; nothing here retries automatically — retry is
// the user re-initiating login.
package provider

import "context"

type Provider interface {
	// Name is the stable route segment and cookie prefix for this provider.
	Name() string

	// AuthCodeURL builds the provider's authorization URL carrying the
	// CSRF state, requesting the minimum scope needed to read an email.
	AuthCodeURL(state string) string

	// IdentityEmail exchanges the authorization code and fetches the
	// authenticated identity's email address.
	IdentityEmail(ctx context.Context, code string) (string, error)
}
