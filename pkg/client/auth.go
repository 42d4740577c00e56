package client

import (
	"context"
	"net/http"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, in, &u)
	return u, err
}

// Login stores the issued token and the caller's profile.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, in, &tok); err != nil {
		return User{}, err
	}
	if err := c.tokens.Save(Session{AccessToken: tok.AccessToken}); err != nil {
		return User{}, err
	}
	u, err := c.Me(ctx)
	if err != nil {
		return User{}, err
	}
	if err := c.tokens.Save(Session{AccessToken: tok.AccessToken, User: &u}); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &u)
	return u, err
}

// CurrentUser returns the profile cached at login.
func (c *Client) CurrentUser() (User, bool) {
	s, ok := c.tokens.Load()
	if !ok || s.User == nil {
		return User{}, false
	}
	return *s.User, true
}

// Logout revokes the server session and always forgets the local one.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	if cerr := c.tokens.Clear(); err == nil {
		err = cerr
	}
	return err
}
