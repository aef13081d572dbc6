package superadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hms-service/pkg/config"
)

var (
	// ErrUnavailable indicates the identity provider could not be reached
	ErrUnavailable = errors.New("identity provider unavailable")

	// ErrLoginFailed indicates the identity provider rejected the credentials
	ErrLoginFailed = errors.New("login failed")
)

// LoginRequest is the credential payload forwarded to the identity provider
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the access/refresh pair nested under "tokens" in the
// provider's login response
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// LoginResponse carries the tokens and profile returned on successful login
type LoginResponse struct {
	Tokens TokenPair              `json:"tokens"`
	User   map[string]interface{} `json:"user,omitempty"`
}

// Client calls the SuperAdmin identity provider over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an identity provider client from configuration
func NewClient(cfg *config.SuperAdminConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Login forwards credentials to the identity provider and returns its tokens.
// Every failure mode surfaces as an authentication failure to the caller so
// provider outages never turn into open access.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: provider returned status %d", ErrLoginFailed, resp.StatusCode)
	}

	var out LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed provider response", ErrLoginFailed)
	}
	if out.Tokens.Access == "" {
		return nil, fmt.Errorf("%w: provider response missing access token", ErrLoginFailed)
	}
	return &out, nil
}
