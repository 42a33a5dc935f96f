package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/report"
	"github.com/Bloorize/timetracker/internal/timeutil"
)

// Reports aggregates the tracker's in-memory projects into a filtered
// table with CSV and PDF export.
type Reports struct {
	tracker *Tracker
	window  fyne.Window

	opts report.Options
	rows []models.ReportRow
}

func NewReports(t *Tracker, w fyne.Window) *Reports {
	return &Reports{
		tracker: t,
		window:  w,
		opts: report.Options{
			Type:      report.ByProject,
			Range:     report.RangeWeek,
			ProjectID: report.AllProjects,
		},
	}
}

func (r *Reports) MakeUI() fyne.CanvasObject {
	totalLabel := widget.NewLabelWithStyle("", fyne.TextAlignTrailing, fyne.TextStyle{Bold: true})
	content := container.NewStack()

	// Aggregation may fetch tasks over the network, so it runs off the event
	// thread and only the widget updates marshal back.
	var refresh func()
	refresh = func() {
		opts := r.opts
		go func() {
			rows, total := r.loadRows(opts)
			fyne.Do(func() {
				r.rows = rows
				totalLabel.SetText(fmt.Sprintf("Total: %s hours", strconv.FormatFloat(total, 'f', -1, 64)))
				content.Objects = []fyne.CanvasObject{r.renderRows(total)}
				content.Refresh()
			})
		}()
	}

	typeSelect := widget.NewSelect(
		[]string{report.TypeLabel(report.ByProject), report.TypeLabel(report.ByTask)},
		func(label string) {
			r.opts.Type = report.ByProject
			if label == report.TypeLabel(report.ByTask) {
				r.opts.Type = report.ByTask
			}
			refresh()
		})
	typeSelect.SetSelected(report.TypeLabel(r.opts.Type))

	ranges := []report.Range{report.RangeDay, report.RangeWeek, report.RangeMonth, report.RangeAll}
	rangeLabels := make([]string, len(ranges))
	for i, rng := range ranges {
		rangeLabels[i] = report.RangeLabel(rng)
	}
	rangeSelect := widget.NewSelect(rangeLabels, func(label string) {
		for _, rng := range ranges {
			if report.RangeLabel(rng) == label {
				r.opts.Range = rng
				break
			}
		}
		refresh()
	})
	rangeSelect.SetSelected(report.RangeLabel(r.opts.Range))

	projectSelect := widget.NewSelect(nil, nil)
	rebuildProjectFilter := func() {
		labels, ids := projectFilterOptions(r.tracker.Projects())
		projectSelect.Options = labels
		projectSelect.OnChanged = func(label string) {
			if id, ok := ids[label]; ok {
				r.opts.ProjectID = id
			}
			refresh()
		}
		if projectSelect.Selected == "" {
			projectSelect.SetSelected(allProjectsLabel)
		}
		projectSelect.Refresh()
	}

	exportCSV := widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() {
		r.exportCSV()
	})
	exportPDF := widget.NewButtonWithIcon("Export PDF", theme.DocumentSaveIcon(), func() {
		r.exportPDF()
	})
	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		rebuildProjectFilter()
		refresh()
	})

	rebuildProjectFilter()
	refresh()

	toolbar := container.NewHBox(
		typeSelect,
		rangeSelect,
		projectSelect,
		refreshBtn,
		layout.NewSpacer(),
		exportCSV,
		exportPDF,
	)

	return container.NewBorder(
		toolbar,
		container.NewVBox(widget.NewSeparator(), totalLabel),
		nil, nil,
		content,
	)
}

// allProjectsLabel is the no-filter entry of the project select.
const allProjectsLabel = "All Projects"

// loadRows makes sure every project's tasks are in the snapshot, then
// aggregates them under the given filters. Safe to call off the event thread.
func (r *Reports) loadRows(opts report.Options) ([]models.ReportRow, float64) {
	r.tracker.EnsureAllTasks(context.Background())
	rows := report.Compute(r.tracker.Projects(), opts, time.Now())
	return rows, report.Total(rows)
}

// projectFilterOptions builds the select labels and a label-to-id map.
// Duplicate project names get a numeric suffix so each label still resolves
// to exactly one project.
func projectFilterOptions(projects []models.Project) ([]string, map[string]string) {
	labels := []string{allProjectsLabel}
	ids := map[string]string{allProjectsLabel: report.AllProjects}
	seen := map[string]int{allProjectsLabel: 1}

	for _, p := range projects {
		label := p.Name
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s (%d)", p.Name, n)
		}
		labels = append(labels, label)
		ids[label] = p.ID
	}
	return labels, ids
}

func (r *Reports) renderRows(total float64) fyne.CanvasObject {
	if len(r.rows) == 0 {
		return container.NewCenter(widget.NewLabel("No time recorded for this period."))
	}

	rows := r.rows
	byTask := r.opts.Type == report.ByTask

	list := widget.NewList(
		func() int { return len(rows) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil,
				container.NewHBox(
					widget.NewLabel("0h 0m"),
					widget.NewLabel("0.0%"),
				),
				container.NewVBox(
					widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
					widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}),
				))
		},
		func(i int, o fyne.CanvasObject) {
			if i >= len(rows) {
				return
			}
			row := rows[i]
			box := o.(*fyne.Container)
			right := box.Objects[1].(*fyne.Container)
			timeLabel := right.Objects[0].(*widget.Label)
			pctLabel := right.Objects[1].(*widget.Label)
			info := box.Objects[0].(*fyne.Container)
			nameLabel := info.Objects[0].(*widget.Label)
			projectLabel := info.Objects[1].(*widget.Label)

			nameLabel.SetText(row.Name)
			if byTask {
				projectLabel.SetText(row.ProjectName)
				projectLabel.Show()
			} else {
				projectLabel.SetText("")
				projectLabel.Hide()
			}
			timeLabel.SetText(timeutil.Short(row.TotalSeconds))
			pctLabel.SetText(fmt.Sprintf("%.1f%%", report.Percent(row.Hours, total)))
		},
	)

	return list
}

func (r *Reports) meta() report.Meta {
	filter := allProjectsLabel
	if r.opts.ProjectID != report.AllProjects {
		for _, p := range r.tracker.Projects() {
			if p.ID == r.opts.ProjectID {
				filter = p.Name
				break
			}
		}
	}
	return report.Meta{
		Type:          r.opts.Type,
		Range:         r.opts.Range,
		ProjectFilter: filter,
		Generated:     time.Now(),
		TotalHours:    report.Total(r.rows),
	}
}

func (r *Reports) exportCSV() {
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, r.window)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()

		if err := report.WriteCSV(uc, r.rows, r.meta()); err != nil {
			dialog.ShowError(err, r.window)
		}
	}, r.window)
	d.SetFileName(report.CSVFileName(time.Now()))
	d.Show()
}

func (r *Reports) exportPDF() {
	d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, r.window)
			return
		}
		if uc == nil {
			return
		}

		// maroto writes to a path, not a writer.
		path := uc.URI().Path()
		uc.Close()

		if err := report.WritePDF(path, r.rows, r.meta()); err != nil {
			dialog.ShowError(err, r.window)
			return
		}
		dialog.ShowInformation("Export complete", "Saved report to "+path, r.window)
	}, r.window)
	d.SetFileName(report.PDFFileName(time.Now()))
	d.Show()
}
