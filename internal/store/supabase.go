package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Bloorize/timetracker/internal/models"
)

// Client implements Store and Identity against a Supabase project. One
// instance is shared by the whole app and injected into whatever needs it.
type Client struct {
	baseURL     string
	anonKey     string
	http        *http.Client
	sessionPath string

	mu        sync.Mutex
	session   *models.Session
	listeners []func(*models.User)
}

// New builds a client for the given Supabase project URL and anon key.
// sessionPath is where the signed-in session is cached between runs; pass ""
// to keep the session in memory only.
func New(baseURL, anonKey, sessionPath string) *Client {
	c := &Client{
		baseURL:     baseURL,
		anonKey:     anonKey,
		http:        &http.Client{Timeout: 15 * time.Second},
		sessionPath: sessionPath,
	}
	c.loadSession()
	return c
}

var _ Store = (*Client)(nil)
var _ Identity = (*Client)(nil)

func (c *Client) userID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return "", ErrNotAuthenticated
	}
	return c.session.User.ID, nil
}

// rest performs one PostgREST call against a table and decodes the response
// into out (which may be nil for writes without return=representation).
func (c *Client) rest(ctx context.Context, method, table string, query url.Values, prefer string, body, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", table, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", table, err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)

	c.mu.Lock()
	token := c.anonKey
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.mu.Unlock()

	req.Header.Set("Authorization", "Bearer "+token)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrNotAuthenticated
	case resp.StatusCode == http.StatusForbidden:
		return ErrNotAuthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// ListProjects returns the user's projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+uid)
	q.Set("order", "created_at.desc")

	var projects []models.Project
	if err := c.rest(ctx, http.MethodGet, "projects", q, "", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProjectWithTasks returns one owned project with its tasks, oldest first.
func (c *Client) GetProjectWithTasks(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := c.ownedProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("project_id", "eq."+projectID)
	q.Set("order", "created_at.asc")

	var tasks []models.Task
	if err := c.rest(ctx, http.MethodGet, "tasks", q, "", nil, &tasks); err != nil {
		return nil, err
	}
	project.Tasks = tasks
	return project, nil
}

// ownedProject fetches a project row if and only if it belongs to the
// signed-in user.
func (c *Client) ownedProject(ctx context.Context, projectID string) (*models.Project, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+projectID)
	q.Set("user_id", "eq."+uid)

	var rows []models.Project
	if err := c.rest(ctx, http.MethodGet, "projects", q, "", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (c *Client) CreateProject(ctx context.Context, name, description string) (*models.Project, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}

	body := []map[string]any{{
		"user_id":     uid,
		"name":        name,
		"description": description,
	}}

	var rows []models.Project
	if err := c.rest(ctx, http.MethodPost, "projects", url.Values{"select": {"*"}}, "return=representation", body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create project: backend returned no row")
	}
	return &rows[0], nil
}

// DeleteProject removes the project and all its tasks. The tasks go first so
// a failure never leaves orphaned rows pointing at a deleted project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := c.ownedProject(ctx, projectID); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("project_id", "eq."+projectID)
	if err := c.rest(ctx, http.MethodDelete, "tasks", q, "", nil, nil); err != nil {
		return err
	}

	q = url.Values{}
	q.Set("id", "eq."+projectID)
	return c.rest(ctx, http.MethodDelete, "projects", q, "", nil, nil)
}

func (c *Client) CreateTask(ctx context.Context, projectID, name string, initialSeconds int) (*models.Task, error) {
	// The task table carries no user_id; ownership flows through the project.
	if _, err := c.ownedProject(ctx, projectID); err != nil {
		return nil, err
	}

	body := []map[string]any{{
		"project_id": projectID,
		"name":       name,
		"time_spent": initialSeconds,
	}}

	var rows []models.Task
	if err := c.rest(ctx, http.MethodPost, "tasks", url.Values{"select": {"*"}}, "return=representation", body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create task: backend returned no row")
	}
	return &rows[0], nil
}

// ownedTask verifies that taskID belongs to one of the caller's projects.
func (c *Client) ownedTask(ctx context.Context, taskID string) (*models.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+taskID)

	var rows []models.Task
	if err := c.rest(ctx, http.MethodGet, "tasks", q, "", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	if _, err := c.ownedProject(ctx, rows[0].ProjectID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	return &rows[0], nil
}

func (c *Client) UpdateTaskTime(ctx context.Context, taskID string, seconds int) (*models.Task, error) {
	if _, err := c.ownedTask(ctx, taskID); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("id", "eq."+taskID)
	q.Set("select", "*")

	var rows []models.Task
	if err := c.rest(ctx, http.MethodPatch, "tasks", q, "return=representation", map[string]any{"time_spent": seconds}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := c.ownedTask(ctx, taskID); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("id", "eq."+taskID)
	return c.rest(ctx, http.MethodDelete, "tasks", q, "", nil, nil)
}

// activeRow is the wire shape of the active_tasks table.
type activeRow struct {
	UserID string `json:"user_id"`
	models.ActiveTimer
}

// ActiveTask returns the user's active timer record, or nil if none exists.
func (c *Client) ActiveTask(ctx context.Context) (*models.ActiveTimer, error) {
	uid, err := c.userID()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+uid)

	var rows []activeRow
	if err := c.rest(ctx, http.MethodGet, "active_tasks", q, "", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0].ActiveTimer, nil
}

// SaveActiveTask upserts the single per-user record in one request, so two
// overlapping saves can never leave duplicate rows for one user.
func (c *Client) SaveActiveTask(ctx context.Context, at models.ActiveTimer) error {
	uid, err := c.userID()
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("on_conflict", "user_id")

	body := []activeRow{{UserID: uid, ActiveTimer: at}}
	return c.rest(ctx, http.MethodPost, "active_tasks", q, "resolution=merge-duplicates", body, nil)
}

func (c *Client) ClearActiveTask(ctx context.Context) error {
	uid, err := c.userID()
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("user_id", "eq."+uid)
	return c.rest(ctx, http.MethodDelete, "active_tasks", q, "", nil, nil)
}
