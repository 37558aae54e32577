package config

type TokenConfig interface {
	GetPrivateKeyPEM() string
	GetKeyID() string
	GetAudience() string
	GetAllowAnonymousSessions() bool
}

type Token struct{}

var _ TokenConfig = Token{}

// GetPrivateKeyPEM returns the PEM-encoded RSA private key used to sign
// bearer tokens. The keypair is fixed configuration, never generated at
// runtime.
func (Token) GetPrivateKeyPEM() string {
	return GetEnv("AUTH_PRIVATE_KEY", "")
}

func (Token) GetKeyID() string {
	return GetEnv("AUTH_KEY_ID", "key-1")
}

// GetAudience is the downstream service identifier asserted in issued
// tokens.
func (Token) GetAudience() string {
	return GetEnv("AUTH_AUDIENCE", "api")
}

// GetAllowAnonymousSessions picks the /auth/token contract: silent
// re-issuance of anonymous sessions when true, hard 401 on an invalid
// session when false.
func (Token) GetAllowAnonymousSessions() bool {
	return GetEnv("ALLOW_ANONYMOUS_SESSIONS", "false") == "true"
}
