package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bloorize/timetracker/internal/models"
)

var now = time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC) // a Thursday

func sampleProjects() []models.Project {
	return []models.Project{
		{
			ID:   "pa",
			Name: "A",
			Tasks: []models.Task{
				{ID: "t1", Name: "design", TimeSpent: 3600, CreatedAt: now.Add(-time.Hour)},
			},
		},
		{
			ID:   "pb",
			Name: "B",
			Tasks: []models.Task{
				{ID: "t2", Name: "review", TimeSpent: 1800, CreatedAt: now.Add(-time.Hour)},
			},
		},
	}
}

func TestComputeByProject(t *testing.T) {
	t.Parallel()

	rows := Compute(sampleProjects(), Options{Type: ByProject, Range: RangeAll, ProjectID: AllProjects}, now)

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, 1.00, rows[0].Hours)
	assert.Equal(t, "B", rows[1].Name)
	assert.Equal(t, 0.50, rows[1].Hours)

	total := Total(rows)
	assert.Equal(t, 1.50, total)
	assert.InDelta(t, 66.7, Percent(rows[0].Hours, total), 0.05)
	assert.InDelta(t, 33.3, Percent(rows[1].Hours, total), 0.05)
}

func TestComputeByTaskCarriesProjectName(t *testing.T) {
	t.Parallel()

	rows := Compute(sampleProjects(), Options{Type: ByTask, Range: RangeAll, ProjectID: AllProjects}, now)

	require.Len(t, rows, 2)
	assert.Equal(t, "design", rows[0].Name)
	assert.Equal(t, "A", rows[0].ProjectName)
	assert.Equal(t, "review", rows[1].Name)
	assert.Equal(t, "B", rows[1].ProjectName)
}

func TestComputeSortsDescendingByHours(t *testing.T) {
	t.Parallel()

	projects := []models.Project{
		{ID: "p1", Name: "small", Tasks: []models.Task{{TimeSpent: 600, CreatedAt: now}}},
		{ID: "p2", Name: "big", Tasks: []models.Task{{TimeSpent: 7200, CreatedAt: now}}},
		{ID: "p3", Name: "mid", Tasks: []models.Task{{TimeSpent: 3600, CreatedAt: now}}},
	}

	rows := Compute(projects, Options{Type: ByProject, Range: RangeAll, ProjectID: AllProjects}, now)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"big", "mid", "small"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
}

func TestComputeProjectFilter(t *testing.T) {
	t.Parallel()

	rows := Compute(sampleProjects(), Options{Type: ByProject, Range: RangeAll, ProjectID: "pb"}, now)

	require.Len(t, rows, 1)
	assert.Equal(t, "B", rows[0].Name)
}

func TestDayRangeExcludesTasksCreatedBeforeMidnight(t *testing.T) {
	t.Parallel()

	projects := []models.Project{{
		ID:   "p1",
		Name: "P",
		Tasks: []models.Task{
			{Name: "old", TimeSpent: 3600, CreatedAt: now.AddDate(0, 0, -2)},
			{Name: "today", TimeSpent: 1800, CreatedAt: now.Add(-time.Hour)},
		},
	}}

	rows := Compute(projects, Options{Type: ByTask, Range: RangeDay, ProjectID: AllProjects}, now)

	require.Len(t, rows, 1)
	assert.Equal(t, "today", rows[0].Name)
}

func TestWeekCutoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "thursday goes back to monday",
			now:  time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday is its own cutoff",
			now:  time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday counts as day seven of the prior week",
			now:  time.Date(2024, 3, 17, 22, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := cutoff(RangeWeek, tc.now)
			require.True(t, ok)
			assert.True(t, got.Equal(tc.want), "cutoff = %v, want %v", got, tc.want)
		})
	}
}

func TestMonthCutoff(t *testing.T) {
	t.Parallel()

	got, ok := cutoff(RangeMonth, now)
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAllRangeHasNoCutoff(t *testing.T) {
	t.Parallel()

	_, ok := cutoff(RangeAll, now)
	assert.False(t, ok)
}

func TestZeroTotalPercentagesAreDefined(t *testing.T) {
	t.Parallel()

	projects := []models.Project{{
		ID:    "p1",
		Name:  "empty",
		Tasks: []models.Task{{Name: "idle", TimeSpent: 0, CreatedAt: now}},
	}}

	rows := Compute(projects, Options{Type: ByProject, Range: RangeAll, ProjectID: AllProjects}, now)
	total := Total(rows)

	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, total)
	assert.Equal(t, 0.0, Percent(rows[0].Hours, total))

	var sb strings.Builder
	err := WriteCSV(&sb, rows, Meta{
		Type:          ByProject,
		Range:         RangeAll,
		ProjectFilter: "All Projects",
		Generated:     now,
		TotalHours:    total,
	})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "0.0%")
	assert.NotContains(t, sb.String(), "NaN")
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	rows := Compute(sampleProjects(), Options{Type: ByProject, Range: RangeAll, ProjectID: AllProjects}, now)

	var sb strings.Builder
	err := WriteCSV(&sb, rows, Meta{
		Type:          ByProject,
		Range:         RangeAll,
		ProjectFilter: "All Projects",
		Generated:     now,
		TotalHours:    Total(rows),
	})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "Time Tracker Report - By Project")
	assert.Contains(t, out, "Generated: 2024-03-14")
	assert.Contains(t, out, "Filters: All Time, All Projects")
	assert.Contains(t, out, "Total Hours: 1.5")
	assert.Contains(t, out, "Project,Time Spent,Hours,Percentage")
	assert.Contains(t, out, "A,1h 0m,1,66.7%")
	assert.Contains(t, out, "B,0h 30m,0.5,33.3%")
}

func TestWriteCSVByTaskHasProjectColumn(t *testing.T) {
	t.Parallel()

	rows := Compute(sampleProjects(), Options{Type: ByTask, Range: RangeAll, ProjectID: AllProjects}, now)

	var sb strings.Builder
	err := WriteCSV(&sb, rows, Meta{
		Type:          ByTask,
		Range:         RangeAll,
		ProjectFilter: "All Projects",
		Generated:     now,
		TotalHours:    Total(rows),
	})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "Task,Project,Time Spent,Hours,Percentage")
	assert.Contains(t, out, "design,A,1h 0m,1,66.7%")
}

func TestCSVFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "time-tracker-report-2024-03-14.csv", CSVFileName(now))
}
