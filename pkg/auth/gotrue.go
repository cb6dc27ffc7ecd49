package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInvalidCredentials is returned when the identity provider rejects a
// password grant.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Session is the token pair returned by a successful sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// GoTrueClient talks to the Supabase Auth REST API.
type GoTrueClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGoTrueClient(supabaseURL, apiKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL:    supabaseURL + "/auth/v1",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges an email and password for a session.
func (g *GoTrueClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	status, err := g.post(ctx, "/token?grant_type=password", credentials{email, password}, &s)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &s, nil
}

// SignUp registers a new identity. The returned session may be empty when
// the project requires email confirmation.
func (g *GoTrueClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if _, err := g.post(ctx, "/signup", credentials{email, password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut revokes the session behind an access token.
func (g *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue: logout failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gotrue: logout returned %d", resp.StatusCode)
	}
	return nil
}

func (g *GoTrueClient) post(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gotrue: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Msg              string `json:"msg"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(data, &apiErr)
		msg := apiErr.Msg
		if msg == "" {
			msg = apiErr.ErrorDescription
		}
		return resp.StatusCode, fmt.Errorf("gotrue: %d %s", resp.StatusCode, msg)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("gotrue: decode failed: %w", err)
	}
	return resp.StatusCode, nil
}
