package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/timeutil"
)

// Meta is the header block written above the exported table.
type Meta struct {
	Type          Type
	Range         Range
	ProjectFilter string // "All Projects" or "Project: <name>"
	Generated     time.Time
	TotalHours    float64
}

// WriteCSV serializes the report rows plus a header block naming the report
// type, generation date, active filters and grand total. Purely derived
// output; nothing is persisted.
func WriteCSV(w io.Writer, rows []models.ReportRow, meta Meta) error {
	if _, err := fmt.Fprintf(w, "Time Tracker Report - %s\n", TypeLabel(meta.Type)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Generated: %s\n\n", meta.Generated.Format("2006-01-02")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Filters: %s, %s\n", RangeLabel(meta.Range), meta.ProjectFilter); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Total Hours: %s\n\n", formatHours(meta.TotalHours)); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if meta.Type == ByTask {
		if err := cw.Write([]string{"Task", "Project", "Time Spent", "Hours", "Percentage"}); err != nil {
			return err
		}
	} else {
		if err := cw.Write([]string{"Project", "Time Spent", "Hours", "Percentage"}); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := []string{row.Name}
		if meta.Type == ByTask {
			record = append(record, row.ProjectName)
		}
		record = append(record,
			timeutil.Short(row.TotalSeconds),
			formatHours(row.Hours),
			formatPercent(row.Hours, meta.TotalHours),
		)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSVFileName is the default export name, dated like the web client's
// download attribute.
func CSVFileName(now time.Time) string {
	return fmt.Sprintf("time-tracker-report-%s.csv", now.Format("2006-01-02"))
}

// PDFFileName is the default name for the PDF export.
func PDFFileName(now time.Time) string {
	return fmt.Sprintf("time-tracker-report-%s.pdf", now.Format("2006-01-02"))
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

func formatPercent(hours, total float64) string {
	return fmt.Sprintf("%.1f%%", Percent(hours, total))
}
