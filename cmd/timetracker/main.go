package main

import (
	_ "embed"

	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/Bloorize/timetracker/internal/models"
	"github.com/Bloorize/timetracker/internal/store"
	"github.com/Bloorize/timetracker/internal/ui"
	"github.com/Bloorize/timetracker/internal/updater"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

//go:embed Icon.png
var embeddedIconBytes []byte

var userConfigFilePath string

func setupViper() error {
	viper.SetConfigName("timetracker")
	viper.SetConfigType("yaml")

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting user home directory: %w", err)
		}
		if runtime.GOOS == "windows" {
			configHome = filepath.Join(homeDir, "AppData", "Roaming")
		} else {
			configHome = filepath.Join(homeDir, ".config")
		}
	}

	userConfigFilePath = filepath.Join(configHome, "timetracker", "timetracker.yml")
	viper.SetConfigFile(userConfigFilePath)

	if err := os.MkdirAll(filepath.Dir(userConfigFilePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetDefault("supabase_url", "")
	viper.SetDefault("supabase_anon_key", "")
	viper.SetDefault("last_run_version", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			log.Println("Config file not found; creating one with default values")
			if err := viper.WriteConfigAs(userConfigFilePath); err != nil {
				return fmt.Errorf("creating config file: %w", err)
			}
		} else {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

func main() {
	os.Setenv("FYNE_SCALE", "auto")

	go func() {
		if err := updater.SelfUpdate("Bloorize", "timetracker"); err != nil {
			log.Printf("Self-update failed: %v", err)
		}
	}()

	a := app.NewWithID("com.bloorize.timetracker")

	iconResource := fyne.NewStaticResource("Icon.png", embeddedIconBytes)
	a.SetIcon(iconResource)

	w := a.NewWindow("Time Tracker")
	w.Resize(fyne.NewSize(800, 600))

	if err := setupViper(); err != nil {
		dialog.ShowError(err, w)
		w.ShowAndRun()
		return
	}

	supabaseURL := viper.GetString("supabase_url")
	anonKey := viper.GetString("supabase_anon_key")
	if supabaseURL == "" || anonKey == "" {
		w.SetContent(container.NewCenter(widget.NewLabel(
			"Missing Supabase configuration.\n\nSet supabase_url and supabase_anon_key in\n" + userConfigFilePath)))
		w.ShowAndRun()
		return
	}

	sessionPath := filepath.Join(filepath.Dir(userConfigFilePath), "session.json")
	client := store.New(supabaseURL, anonKey, sessionPath)

	var showMain func()
	showLogin := func() {
		login := ui.NewLogin(client, w, func() { showMain() })
		w.SetContent(login.MakeUI())
	}

	showMain = func() {
		tracker := ui.NewTracker(client, w)
		reports := ui.NewReports(tracker, w)
		account := ui.NewAccount(client, tracker.Machine(), w)

		tabs := container.NewAppTabs(
			container.NewTabItem("Tracker", tracker.MakeUI()),
			container.NewTabItem("Reports", reports.MakeUI()),
			container.NewTabItem("Account", account.MakeUI()),
		)
		w.SetContent(tabs)

		ui.SetupTray(a, w, iconResource, tracker)

		go func() {
			tracker.Load(context.Background())
			fyne.Do(func() {
				ui.CheckVersion(w)
			})
		}()
	}

	// Signing out anywhere drops back to the login screen.
	client.OnAuthChange(func(user *models.User) {
		if user == nil {
			fyne.Do(showLogin)
		}
	})

	if client.CurrentUser() != nil {
		showMain()
	} else {
		showLogin()
	}

	w.ShowAndRun()
}
