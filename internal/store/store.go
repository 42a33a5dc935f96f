// Package store talks to the hosted Supabase backend: GoTrue for identity,
// PostgREST for the projects/tasks/active_tasks tables. Every row is owned by
// the signed-in user and every query filters on that ownership, so call sites
// never re-implement the check.
package store

import (
	"context"
	"errors"

	"github.com/Bloorize/timetracker/internal/models"
)

var (
	// ErrNotAuthenticated means no signed-in session is available for an
	// operation that requires one.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotAuthorized means the referenced project or task does not belong
	// to the caller.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound means the referenced id is absent.
	ErrNotFound = errors.New("not found")
)

// Store is the persistence contract the timer and the screens run against.
// The owner identity is implicit in the client's session.
type Store interface {
	// ListProjects returns the user's projects ordered by creation, newest
	// first, without their tasks.
	ListProjects(ctx context.Context) ([]models.Project, error)

	// GetProjectWithTasks returns one owned project including its tasks
	// ordered by creation, oldest first.
	GetProjectWithTasks(ctx context.Context, projectID string) (*models.Project, error)

	CreateProject(ctx context.Context, name, description string) (*models.Project, error)

	// DeleteProject removes a project and cascades to all its tasks.
	DeleteProject(ctx context.Context, projectID string) error

	CreateTask(ctx context.Context, projectID, name string, initialSeconds int) (*models.Task, error)

	// UpdateTaskTime overwrites the task's cumulative total.
	UpdateTaskTime(ctx context.Context, taskID string, seconds int) (*models.Task, error)

	DeleteTask(ctx context.Context, taskID string) error

	// ActiveTask returns the user's active timer record, or nil if none.
	ActiveTask(ctx context.Context) (*models.ActiveTimer, error)

	// SaveActiveTask upserts the single per-user active timer record.
	SaveActiveTask(ctx context.Context, at models.ActiveTimer) error

	ClearActiveTask(ctx context.Context) error
}

// Identity is the auth contract: who is signed in, credential operations and
// a session-change notification stream.
type Identity interface {
	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *models.User

	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error

	// OnAuthChange registers a callback invoked with the new user on sign-in
	// and nil on sign-out.
	OnAuthChange(fn func(*models.User))
}
