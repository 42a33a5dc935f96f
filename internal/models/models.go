package models

import (
	"time"
)

// Project groups a set of tasks. Rows live in the backend "projects" table
// and belong to exactly one user.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Tasks       []Task    `json:"tasks,omitempty"`
}

// Task carries a cumulative elapsed-seconds counter. TimeSpent only grows,
// except for explicit manual edits which overwrite it.
type Task struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	TimeSpent int       `json:"time_spent"`
	CreatedAt time.Time `json:"created_at"`
}

// ActiveTimer is the single per-user record naming which task is currently
// accumulating time and since when. StartTime is milliseconds since epoch,
// matching the backend column.
type ActiveTimer struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
	StartTime int64  `json:"start_time"`
}

// Started returns the timer start as wall-clock time.
func (a ActiveTimer) Started() time.Time {
	return time.UnixMilli(a.StartTime)
}

// User is the authenticated identity every project belongs to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a GoTrue token pair plus its user. Cached on disk so the app
// stays signed in across restarts.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// ReportRow is a derived aggregate for the reports table, CSV and PDF.
// Never persisted.
type ReportRow struct {
	Name         string
	ProjectName  string // set when grouping by task
	Hours        float64
	TotalSeconds int
}
