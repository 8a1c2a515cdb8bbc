package cli

import (
	"context"
	"fmt"
)

// Login asks for credentials and checks them with a profile request. The
// server has no login endpoint; the same credentials go with every request.
func (a *App) Login(ctx context.Context) error {
	userName, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	a.api.SetCredentials(userName, password)
	p, err := a.api.Profile(ctx)
	if err != nil {
		a.Logout()
		return err
	}

	a.userName = p.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", p.Username)
	return nil
}

func (a *App) Logout() {
	a.api.SetCredentials("", "")
	a.userName = ""
}

// ChangePassword updates the password; the client keeps using the new one.
func (a *App) ChangePassword(ctx context.Context) error {
	oldPw, err := GetPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPw, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	again, err := GetPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	if newPw != again {
		return fmt.Errorf("passwords do not match")
	}

	if err := a.api.ChangePassword(ctx, oldPw, newPw); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}
