package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gatekit/gatekit/codes"
	"github.com/gatekit/gatekit/email"
	"github.com/gatekit/gatekit/sessions"
	"github.com/gatekit/gatekit/users"
)

// Repos holds all store dependencies for the Service.
type Repos struct {
	Users    users.Repo
	Sessions *sessions.Store
	Codes    *codes.Store
}

// Service orchestrates the credential flows. Each flow resolves to a
// session id or a typed failure; flows never touch cookies (the gateway
// does) and never bypass the stores.
type Service struct {
	repos     Repos
	sender    email.Sender
	dummyHash string // compared against when the user or hash is missing
}

func NewService(repos Repos, sender email.Sender) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions store is required")
	}
	if repos.Codes == nil {
		return nil, errors.New("[NewService] Codes store is required")
	}
	if sender == nil {
		return nil, errors.New("[NewService] email sender is required")
	}

	// Verification must not short-circuit on hash absence in a way that
	// reveals user existence, so a missing user still costs one compare.
	dummyHash, err := users.HashPassword("gatekit.dummy")
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] users.HashPassword")
	}

	return &Service{
		repos:     repos,
		sender:    sender,
		dummyHash: dummyHash,
	}, nil
}

// SignUp creates a user with a password hash and a bound session.
func (s *Service) SignUp(email, password string) (string, error) {
	existing, err := s.repos.Users.GetByEmail(email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return "", errors.Wrap(err, "[Service.SignUp] GetByEmail")
	}
	if existing != nil {
		return "", UserExistsErr
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", errors.Wrap(err, "[Service.SignUp] HashPassword")
	}

	user := &users.User{Email: email, PasswordHash: passwordHash}
	if err := s.repos.Users.Insert(user); err != nil {
		return "", errors.Wrap(err, "[Service.SignUp] Insert")
	}

	sessionID, err := s.repos.Sessions.Create(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.SignUp] Sessions.Create")
	}
	return sessionID, nil
}

// SignIn verifies the password and creates a new bound session. The
// not-found and wrong-password cases are merged into CredentialMismatchErr
// so the response does not leak which part failed.
func (s *Service) SignIn(email, password string) (string, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return "", errors.Wrap(err, "[Service.SignIn] GetByEmail")
	}

	hash := s.dummyHash
	if user != nil && user.HasPassword() {
		hash = user.PasswordHash
	}
	if !users.CheckPasswordHash(password, hash) || user == nil || !user.HasPassword() {
		return "", CredentialMismatchErr
	}

	sessionID, err := s.repos.Sessions.Create(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.SignIn] Sessions.Create")
	}
	return sessionID, nil
}

// SignOut deletes the session. Idempotent: unknown ids are a no-op.
func (s *Service) SignOut(sessionID string) error {
	if err := s.repos.Sessions.Delete(sessionID); err != nil {
		return errors.Wrap(err, "[Service.SignOut] Sessions.Delete")
	}
	return nil
}

// RequestCode rotates the user's one-time code and hands it to the email
// sender. The user is created on first request (no password set).
// Delivery problems surface only as the generic DeliveryFailedErr.
func (s *Service) RequestCode(ctx context.Context, emailAddr string) error {
	user, err := s.findOrCreateUser(emailAddr)
	if err != nil {
		return errors.Wrap(err, "[Service.RequestCode] findOrCreateUser")
	}

	code, err := s.repos.Codes.Issue(user.ID)
	if err != nil {
		return errors.Wrap(err, "[Service.RequestCode] Codes.Issue")
	}

	if err := s.sender.SendCode(ctx, emailAddr, code); err != nil {
		log.Err(err).Msg("[Service.RequestCode] sender.SendCode")
		return errors.Wrap(DeliveryFailedErr, "[Service.RequestCode] sender.SendCode")
	}
	return nil
}

// VerifyCode consumes the code (single use, success or failure) and on
// success creates a session bound to the code's owner.
func (s *Service) VerifyCode(code string) (string, error) {
	userID, err := s.repos.Codes.Consume(code)
	if err != nil {
		return "", err
	}

	sessionID, err := s.repos.Sessions.Create(userID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.VerifyCode] Sessions.Create")
	}
	return sessionID, nil
}

// FederatedSignIn creates a session for a third-party verified identity.
// The provider and the state parameter have already been validated by the
// gateway; no further verification happens here.
func (s *Service) FederatedSignIn(emailAddr string) (string, error) {
	user, err := s.findOrCreateUser(emailAddr)
	if err != nil {
		return "", errors.Wrap(err, "[Service.FederatedSignIn] findOrCreateUser")
	}

	sessionID, err := s.repos.Sessions.Create(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.FederatedSignIn] Sessions.Create")
	}
	return sessionID, nil
}

// Bootstrap refreshes the presented session or silently issues a new
// anonymous one. Used by deployments that allow anonymous sessions.
func (s *Service) Bootstrap(sessionID string) (string, error) {
	id, err := s.repos.Sessions.Touch(sessionID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Bootstrap] Sessions.Touch")
	}
	return id, nil
}

// findOrCreateUser looks up a user by email, creating a passwordless one
// when unseen.
func (s *Service) findOrCreateUser(emailAddr string) (*users.User, error) {
	user, err := s.repos.Users.GetByEmail(emailAddr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, errors.Wrap(err, "GetByEmail")
	}

	user = &users.User{Email: emailAddr}
	if err := s.repos.Users.Insert(user); err != nil {
		return nil, errors.Wrap(err, "Insert")
	}
	return user, nil
}
