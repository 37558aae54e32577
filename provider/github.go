package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"

	exchangeTimeout = 10 * time.Second
)

// GitHub implements Provider over the GitHub OAuth2 authorization-code
// flow. GitHub is plain OAuth2 (no id_token), so the email comes from the
// REST user endpoints using the exchanged access token.
type GitHub struct {
	config *oauth2.Config
	client *http.Client
}

func NewGitHub(clientID, clientSecret string) *GitHub {
	return &GitHub{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"user:email"},
		},
		client: &http.Client{Timeout: exchangeTimeout},
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *GitHub) IdentityEmail(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrap(err, "[GitHub.IdentityEmail] Exchange")
	}

	email, err := g.fetchPublicEmail(ctx, tok.AccessToken)
	if err != nil {
		return "", errors.Wrap(err, "[GitHub.IdentityEmail] fetchPublicEmail")
	}
	if email != "" {
		return email, nil
	}

	// The profile email is optional; fall back to the primary verified
	// address from the emails endpoint.
	email, err = g.fetchPrimaryEmail(ctx, tok.AccessToken)
	if err != nil {
		return "", errors.Wrap(err, "[GitHub.IdentityEmail] fetchPrimaryEmail")
	}
	if email == "" {
		return "", errors.New("[GitHub.IdentityEmail] no email on GitHub account")
	}
	return email, nil
}

func (g *GitHub) fetchPublicEmail(ctx context.Context, accessToken string) (string, error) {
	var user struct {
		Email string `json:"email"`
	}
	if err := g.getJSON(ctx, githubUserURL, accessToken, &user); err != nil {
		return "", err
	}
	return user.Email, nil
}

func (g *GitHub) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := g.getJSON(ctx, githubEmailsURL, accessToken, &emails); err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (g *GitHub) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "http.NewRequestWithContext")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "gatekit")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "client.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "json.Decode")
	}
	return nil
}
