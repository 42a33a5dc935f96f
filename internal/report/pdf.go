package report

import (
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/timeutil"
)

// WritePDF renders the current report rows to a PDF file at path.
func WritePDF(path string, rows []models.ReportRow, meta Meta) error {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("Time Tracker Report - %s", TypeLabel(meta.Type)), props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				subtitle := fmt.Sprintf("Generated %s  |  %s, %s",
					meta.Generated.Format("2006-01-02"), RangeLabel(meta.Range), meta.ProjectFilter)
				m.Text(subtitle, props.Text{
					Top:   3,
					Style: consts.Normal,
					Align: consts.Center,
					Size:  11,
				})
			})
		})
	})

	headers := []string{"Project", "Time Spent", "Hours", "Percentage"}
	grid := []uint{5, 3, 2, 2}
	if meta.Type == ByTask {
		headers = []string{"Task", "Project", "Time Spent", "Hours", "Percentage"}
		grid = []uint{3, 3, 2, 2, 2}
	}

	table := [][]string{}
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
		table = append(table, record)
	}

	m.TableList(headers, table, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: grid,
		},
		ContentProp: props.TableListContent{
			Size:      10,
			GridSizes: grid,
		},
		Align:                consts.Center,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	m.Row(20, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total: %s hours", formatHours(meta.TotalHours)), props.Text{
				Top:   10,
				Style: consts.Bold,
				Align: consts.Right,
				Size:  12,
			})
		})
	})

	return m.OutputFileAndClose(path)
}
