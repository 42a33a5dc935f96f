package ui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Bloorize/timetracker/internal/store"
)

// Login is the email/password gate shown until a session exists.
type Login struct {
	identity store.Identity
	window   fyne.Window
	onSignIn func()
}

func NewLogin(identity store.Identity, w fyne.Window, onSignIn func()) *Login {
	return &Login{identity: identity, window: w, onSignIn: onSignIn}
}

func (l *Login) MakeUI() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Time Tracker", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	email := widget.NewEntry()
	email.PlaceHolder = "you@example.com"

	password := widget.NewPasswordEntry()
	password.PlaceHolder = "Password"

	form := widget.NewForm(
		widget.NewFormItem("Email", email),
		widget.NewFormItem("Password", password),
	)

	signInBtn := widget.NewButton("Sign In", func() {
		l.submit(email.Text, password.Text, false)
	})
	signInBtn.Importance = widget.HighImportance

	signUpBtn := widget.NewButton("Create Account", func() {
		l.submit(email.Text, password.Text, true)
	})

	password.OnSubmitted = func(string) {
		l.submit(email.Text, password.Text, false)
	}

	return container.NewCenter(container.NewVBox(
		title,
		form,
		signInBtn,
		signUpBtn,
	))
}

func (l *Login) submit(email, password string, signUp bool) {
	if email == "" || password == "" {
		dialog.ShowError(errors.New("email and password are required"), l.window)
		return
	}

	var err error
	if signUp {
		_, err = l.identity.SignUp(context.Background(), email, password)
	} else {
		_, err = l.identity.SignIn(context.Background(), email, password)
	}
	if err != nil {
		dialog.ShowError(err, l.window)
		return
	}

	// Sign-up with email confirmation enabled creates the account without a
	// session; tell the user instead of switching screens.
	if l.identity.CurrentUser() == nil {
		dialog.ShowInformation("Account created", "Check your email to confirm the account, then sign in.", l.window)
		return
	}

	if l.onSignIn != nil {
		l.onSignIn()
	}
}
