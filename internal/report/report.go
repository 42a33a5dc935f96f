// Package report derives grouped, filtered summaries from the in-memory
// project collection: hours per project or per task over a time range, with
// percentage-of-total, CSV and PDF export. Rows are recomputed on every
// filter or data change and never persisted.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/Bloorize/timetracker/internal/models"
)

// Type selects the grouping axis.
type Type string

const (
	ByProject Type = "project"
	ByTask    Type = "task"
)

// Range selects the time-range cutoff applied to task creation timestamps.
type Range string

const (
	RangeAll   Range = "all"
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// AllProjects is the project filter value meaning "no filter".
const AllProjects = "all"

// Options are the report filters.
type Options struct {
	Type      Type
	Range     Range
	ProjectID string // AllProjects or a project id
}

// Compute builds the report rows for the given snapshot and filters, sorted
// by hours descending. now anchors the time-range cutoff.
func Compute(projects []models.Project, opts Options, now time.Time) []models.ReportRow {
	start, hasCutoff := cutoff(opts.Range, now)

	var rows []models.ReportRow
	for _, project := range projects {
		if opts.ProjectID != "" && opts.ProjectID != AllProjects && project.ID != opts.ProjectID {
			continue
		}

		if opts.Type == ByTask {
			for _, task := range project.Tasks {
				if hasCutoff && task.CreatedAt.Before(start) {
					continue
				}
				rows = append(rows, models.ReportRow{
					Name:         task.Name,
					ProjectName:  project.Name,
					Hours:        round2(float64(task.TimeSpent) / 3600),
					TotalSeconds: task.TimeSpent,
				})
			}
			continue
		}

		totalSeconds := 0
		for _, task := range project.Tasks {
			if hasCutoff && task.CreatedAt.Before(start) {
				continue
			}
			totalSeconds += task.TimeSpent
		}
		rows = append(rows, models.ReportRow{
			Name:         project.Name,
			Hours:        round2(float64(totalSeconds) / 3600),
			TotalSeconds: totalSeconds,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Hours > rows[j].Hours
	})
	return rows
}

// Total recomputes the grand total over the emitted rows. It is the
// percentage denominator and the figure shown next to the export buttons.
func Total(rows []models.ReportRow) float64 {
	var total float64
	for _, row := range rows {
		total += row.Hours
	}
	return round2(total)
}

// Percent is the share of total represented by hours, zero-safe: an empty
// report yields 0 for every row instead of a non-finite value.
func Percent(hours, total float64) float64 {
	if total == 0 {
		return 0
	}
	return hours / total * 100
}

// cutoff returns the inclusive start timestamp for a range, or ok=false for
// the all-time range. Week starts on the most recent Monday; a Sunday counts
// as day seven of the prior week.
func cutoff(r Range, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch r {
	case RangeDay:
		return midnight, true
	case RangeWeek:
		offset := int(now.Weekday()) // Sunday = 0
		if offset == 0 {
			offset = 7
		}
		return midnight.AddDate(0, 0, -offset+1), true
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// RangeLabel is the human filter label used in CSV headers and the UI.
func RangeLabel(r Range) string {
	switch r {
	case RangeDay:
		return "Today"
	case RangeWeek:
		return "This Week"
	case RangeMonth:
		return "This Month"
	default:
		return "All Time"
	}
}

// TypeLabel is the human report-type label.
func TypeLabel(t Type) string {
	if t == ByTask {
		return "By Task"
	}
	return "By Project"
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
