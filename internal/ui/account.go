package ui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Bloorize/timetracker/internal/store"
	"github.com/Bloorize/timetracker/internal/timer"
	"github.com/Bloorize/timetracker/internal/version"
)

// Account shows the signed-in user and the sign out button.
type Account struct {
	identity store.Identity
	machine  *timer.Machine
	window   fyne.Window
}

func NewAccount(identity store.Identity, m *timer.Machine, w fyne.Window) *Account {
	return &Account{identity: identity, machine: m, window: w}
}

func (a *Account) MakeUI() fyne.CanvasObject {
	email := "unknown"
	if user := a.identity.CurrentUser(); user != nil {
		email = user.Email
	}

	emailLabel := widget.NewLabelWithStyle(email, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	versionLabel := widget.NewLabelWithStyle("Time Tracker "+version.Version, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	signOutBtn := widget.NewButton("Sign Out", func() {
		// Bank any running timer before the session goes away.
		if taskID, _, running := a.machine.Active(); running {
			a.machine.Stop(context.Background(), taskID)
		}
		if err := a.identity.SignOut(context.Background()); err != nil {
			dialog.ShowError(err, a.window)
		}
	})
	signOutBtn.Importance = widget.DangerImportance

	return container.NewCenter(container.NewVBox(
		emailLabel,
		versionLabel,
		signOutBtn,
	))
}
