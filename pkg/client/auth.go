package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/naveenspark/busdesk/pkg/domain"
)

// Auth endpoints.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	LogoutPath   = "/auth/logout"
	RefreshPath  = "/auth/refresh"
	CheckPath    = "/auth/check"
)

// Login exchanges credentials for a token. A 401 here means bad credentials,
// so it is never handed to the refresher.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	r, err := c.newRequest(http.MethodPost, LoginPath, domain.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	r.noRetry = true

	var resp domain.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &resp, nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, email, name, password string) (*domain.AuthResponse, error) {
	r, err := c.newRequest(http.MethodPost, RegisterPath, domain.Credentials{Email: email, Name: name, Password: password})
	if err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	r.noRetry = true

	var resp domain.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &resp, nil
}

// Logout tells the backend to end the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, LogoutPath, nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Refresh trades the session cookie for a new token. It sends no bearer token
// and is never retried, so a rejected refresh cannot trigger another refresh.
func (c *Client) Refresh(ctx context.Context) (*domain.AuthResponse, error) {
	r := &request{method: http.MethodGet, path: RefreshPath, anonymous: true, noRetry: true}

	var resp domain.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, fmt.Errorf("client.Refresh: %w", err)
	}
	return &resp, nil
}

// CheckUser reports whether an account with the given email exists. The backend
// answers with the user or an empty body.
func (c *Client) CheckUser(ctx context.Context, email string) (bool, error) {
	params := url.Values{}
	params.Set("email", email)

	var raw json.RawMessage
	if err := c.get(ctx, CheckPath+"?"+params.Encode(), &raw); err != nil {
		return false, fmt.Errorf("client.CheckUser: %w", err)
	}
	return truthy(raw), nil
}

func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
