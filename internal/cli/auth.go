package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/timex"
)

var errPasswordsDiffer = errors.New("passwords do not match")

// getPassword is an indirection over GetPassword used by tests.
var getPassword = GetPassword

func (a *App) report(err error) {
	a.println(describe(err))
}

// readSecret prompts for a password and returns it as a string. The raw
// bytes are wiped before returning.
func (a *App) readSecret(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// readNewSecret asks for a password twice.
func (a *App) readNewSecret(prompt string) (string, error) {
	first, err := a.readSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := a.readSecret("Repeat password")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordsDiffer
	}
	return first, nil
}

// Register prompts for a username, an email and a password and creates the
// account. It does not log in.
func (a *App) Register(ctx context.Context) error {
	username, err := a.prompt("Enter username")
	if err != nil {
		return err
	}
	email, err := a.prompt("Enter email")
	if err != nil {
		return err
	}
	password, err := a.readNewSecret("Enter password")
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, username, password, email); err != nil {
		return err
	}

	a.println("Registered. You can login now.")
	return nil
}

// Login authenticates, remembers the session for the next run and starts
// the reminder scheduler.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in as %s\n", a.session.Username)
		return nil
	}

	username, err := a.prompt("Enter username")
	if err != nil {
		return err
	}
	password, err := a.readSecret("Enter password")
	if err != nil {
		return err
	}

	sess, err := a.auth.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			a.println("Invalid username or password")
			return nil
		}
		return err
	}

	if err := a.auth.RememberSession(ctx, sess); err != nil {
		a.log.Warn(ctx, "session not remembered", "user_id", sess.UserID, "error", err)
	}

	a.startSession(ctx, sess)
	a.printf("Welcome, %s!\n", sess.Username)

	n, err := a.reminders.UpcomingCount(ctx, sess.UserID, loginUpcomingWindow)
	if err == nil && n > 0 {
		a.printf("You have %d reminder(s) in the next %d minutes\n", n, int(loginUpcomingWindow.Minutes()))
	}
	return nil
}

// Logout stops reminders and forgets the remembered session.
func (a *App) Logout(ctx context.Context) error {
	a.setSession(nil)
	a.reminders.Stop()

	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.println("Logged out")
	return nil
}

func (a *App) ChangePassword(ctx context.Context) error {
	old, err := a.readSecret("Current password")
	if err != nil {
		return err
	}
	next, err := a.readNewSecret("New password")
	if err != nil {
		return err
	}

	if err := a.auth.ChangePassword(ctx, a.session, old, next); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			a.println("Current password is wrong")
			return nil
		}
		return err
	}
	a.println("Password changed")
	return nil
}

func (a *App) ChangeEmail(ctx context.Context) error {
	email, err := a.prompt("New email")
	if err != nil {
		return err
	}
	if err := a.auth.UpdateEmail(ctx, a.session, email); err != nil {
		return err
	}
	a.println("Email updated")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.auth.CurrentUser(ctx, a.session)
	if err != nil {
		return err
	}
	a.println(fmt.Sprintf("%s <%s>, member since %s", u.Username, u.Email, timex.FormatDisplay(u.CreatedAt)))
	return nil
}
