package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserURL = "https://api.github.com/user"

type GithubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// GithubProvider is the slice of the GitHub OAuth flow the auth service needs.
type GithubProvider interface {
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*GithubUser, error)
}

type githubOAuth struct {
	conf    *oauth2.Config
	userURL string
}

func NewGithubProvider(clientID, clientSecret, callbackURL string) GithubProvider {
	return &githubOAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		userURL: githubUserURL,
	}
}

func (g *githubOAuth) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

// FetchUser exchanges the authorization code and reads the GitHub profile.
func (g *githubOAuth) FetchUser(ctx context.Context, code string) (*GithubUser, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := g.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch github user: unexpected status %d", resp.StatusCode)
	}

	var user GithubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode github user: %w", err)
	}
	if user.ID == 0 || user.Login == "" {
		return nil, fmt.Errorf("github user response is missing id or login")
	}
	return &user, nil
}
