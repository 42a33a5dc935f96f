package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Bloorize/timetracker/internal/models"
)

// authResponse is what GoTrue returns from signup and password grants. Signup
// with email confirmation enabled has no token pair, only the user.
type authResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         models.User `json:"user"`

	// Signup responses put the user at the top level.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) gotrue(ctx context.Context, path string, body any, out *authResponse) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return authError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding auth response: %w", err)
		}
	}
	return nil
}

// authError surfaces GoTrue's message so sign-in failures are readable in the
// UI ("Invalid login credentials" instead of a bare status code).
func authError(resp *http.Response) error {
	var payload struct {
		Message          string `json:"msg"`
		ErrorDescription string `json:"error_description"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	_ = json.Unmarshal(data, &payload)

	switch {
	case payload.Message != "":
		return fmt.Errorf("%s", payload.Message)
	case payload.ErrorDescription != "":
		return fmt.Errorf("%s", payload.ErrorDescription)
	default:
		return fmt.Errorf("auth failed with status %d", resp.StatusCode)
	}
}

// CurrentUser returns the signed-in user, or nil when signed out.
func (c *Client) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.gotrue(ctx, "/auth/v1/token?grant_type=password", body, &out); err != nil {
		return nil, err
	}

	session := models.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    out.ExpiresAt,
		User:         out.User,
	}
	if session.ExpiresAt == 0 && out.ExpiresIn > 0 {
		session.ExpiresAt = time.Now().Unix() + out.ExpiresIn
	}

	c.setSession(&session)
	return c.CurrentUser(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.gotrue(ctx, "/auth/v1/signup", body, &out); err != nil {
		return nil, err
	}

	// With email confirmation disabled the signup response is a full session;
	// sign the user straight in. Otherwise just report who was created.
	if out.AccessToken != "" {
		session := models.Session{
			AccessToken:  out.AccessToken,
			RefreshToken: out.RefreshToken,
			ExpiresAt:    out.ExpiresAt,
			User:         out.User,
		}
		if session.ExpiresAt == 0 && out.ExpiresIn > 0 {
			session.ExpiresAt = time.Now().Unix() + out.ExpiresIn
		}
		c.setSession(&session)
		return c.CurrentUser(), nil
	}

	user := out.User
	if user.ID == "" {
		user = models.User{ID: out.ID, Email: out.Email}
	}
	return &user, nil
}

// SignOut revokes the session with the backend and drops the local one. The
// local session is cleared even when the revoke call fails, so the user is
// never stuck signed in.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.gotrue(ctx, "/auth/v1/logout", map[string]string{}, nil)
	c.setSession(nil)
	return err
}

// OnAuthChange registers a session-change callback: the new user on sign-in,
// nil on sign-out.
func (c *Client) OnAuthChange(fn func(*models.User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) setSession(s *models.Session) {
	c.mu.Lock()
	c.session = s
	listeners := make([]func(*models.User), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	if s != nil {
		c.saveSession(*s)
	} else {
		c.dropSession()
	}

	var u *models.User
	if s != nil {
		user := s.User
		u = &user
	}
	for _, fn := range listeners {
		fn(u)
	}
}
