package ui

import (
	_ "embed"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/viper"

	"github.com/Bloorize/timetracker/internal/version"
)

//go:embed CHANGELOG.md
var changelogData string

// CheckVersion shows the release notes once after every upgrade. The last
// seen version lives in the config file next to the Supabase settings.
func CheckVersion(w fyne.Window) {
	current := version.Version
	lastRun := viper.GetString("last_run_version")

	if lastRun == current {
		return
	}

	showWelcomeDialog(w, current)

	viper.Set("last_run_version", current)
	if err := viper.WriteConfig(); err != nil {
		log.Printf("saving last run version: %v", err)
	}
}

func showWelcomeDialog(w fyne.Window, v string) {
	notes := parseChangelog(v)
	if notes == "" {
		return
	}

	content := widget.NewRichTextFromMarkdown(notes)

	scroll := container.NewScroll(content)
	scroll.SetMinSize(fyne.NewSize(400, 300))

	dlg := dialog.NewCustom("What's New in "+v, "Close", scroll, w)
	dlg.Resize(fyne.NewSize(500, 400))
	dlg.Show()
}

// parseChangelog extracts the "## <version>" section, stopping at the next
// version header. Accepts headers with or without a leading v and with the
// version wrapped in brackets.
func parseChangelog(v string) string {
	lines := strings.Split(changelogData, "\n")
	var extracted []string
	capture := false

	isVersionHeader := func(line, ver string) bool {
		if !strings.HasPrefix(line, "## ") {
			return false
		}
		return strings.Contains(line, "["+ver+"]") || strings.Contains(line, " "+ver+" ") || strings.HasSuffix(line, " "+ver)
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			if capture {
				break
			}
			if isVersionHeader(line, v) || (!strings.HasPrefix(v, "v") && isVersionHeader(line, "v"+v)) {
				capture = true
				continue
			}
		}

		if capture {
			extracted = append(extracted, line)
		}
	}

	return strings.Join(extracted, "\n")
}
