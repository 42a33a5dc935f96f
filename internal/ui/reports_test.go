package ui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/report"
)

// stubStore serves projects and tasks from memory; everything else is inert.
type stubStore struct {
	projects []models.Project
	tasks    map[string][]models.Task // by project id
	fetches  []string
}

func (s *stubStore) ListProjects(context.Context) ([]models.Project, error) {
	return s.projects, nil
}

func (s *stubStore) GetProjectWithTasks(ctx context.Context, projectID string) (*models.Project, error) {
	s.fetches = append(s.fetches, projectID)
	for _, p := range s.projects {
		if p.ID == projectID {
			p.Tasks = s.tasks[projectID]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CreateProject(context.Context, string, string) (*models.Project, error) {
	return nil, nil
}
func (s *stubStore) DeleteProject(context.Context, string) error { return nil }
func (s *stubStore) CreateTask(context.Context, string, string, int) (*models.Task, error) {
	return nil, nil
}
func (s *stubStore) UpdateTaskTime(context.Context, string, int) (*models.Task, error) {
	return nil, nil
}
func (s *stubStore) DeleteTask(context.Context, string) error                 { return nil }
func (s *stubStore) ActiveTask(context.Context) (*models.ActiveTimer, error) { return nil, nil }
func (s *stubStore) SaveActiveTask(context.Context, models.ActiveTimer) error {
	return nil
}
func (s *stubStore) ClearActiveTask(context.Context) error { return nil }

func TestProjectFilterOptionsDisambiguatesDuplicateNames(t *testing.T) {
	t.Parallel()

	projects := []models.Project{
		{ID: "p1", Name: "Website"},
		{ID: "p2", Name: "Website"},
		{ID: "p3", Name: "Backend"},
	}

	labels, ids := projectFilterOptions(projects)

	assert.Equal(t, []string{allProjectsLabel, "Website", "Website (2)", "Backend"}, labels)
	assert.Equal(t, report.AllProjects, ids[allProjectsLabel])
	assert.Equal(t, "p1", ids["Website"])
	assert.Equal(t, "p2", ids["Website (2)"])
	assert.Equal(t, "p3", ids["Backend"])
}

func TestLoadRowsFetchesEveryUnloadedProject(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := &stubStore{
		projects: []models.Project{
			{ID: "p1", Name: "A"},
			{ID: "p2", Name: "B"},
		},
		tasks: map[string][]models.Task{
			"p1": {{ID: "t1", ProjectID: "p1", Name: "one", TimeSpent: 3600, CreatedAt: now}},
			"p2": {{ID: "t2", ProjectID: "p2", Name: "two", TimeSpent: 1800, CreatedAt: now}},
		},
	}

	tracker := NewTracker(st, nil)
	tracker.projects = []models.Project{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}}

	r := NewReports(tracker, nil)
	rows, total := r.loadRows(report.Options{
		Type:      report.ByProject,
		Range:     report.RangeAll,
		ProjectID: report.AllProjects,
	})

	// Both projects' tasks were pulled in, not just the opened one.
	assert.ElementsMatch(t, []string{"p1", "p2"}, st.fetches)
	require.Len(t, rows, 2)
	assert.Equal(t, 1.5, total)
}
