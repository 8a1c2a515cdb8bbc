package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/equipview/internal/client/client"
)

// Profile prints the profile and offers to edit it. Empty answers keep the
// current value.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}
	printProfile(a, p)

	answer, err := GetSimpleText(a.reader, "Edit profile? [y/N]", a.out)
	if err != nil || (answer != "y" && answer != "Y") {
		return nil
	}

	var u client.ProfileUpdate
	for _, f := range []struct {
		prompt  string
		current string
		dst     **string
	}{
		{"Email", p.Email, &u.Email},
		{"First name", p.FirstName, &u.FirstName},
		{"Last name", p.LastName, &u.LastName},
	} {
		v, err := GetSimpleText(a.reader, fmt.Sprintf("%s [%s]", f.prompt, f.current), a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}

	p, err = a.api.UpdateProfile(ctx, u)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	printProfile(a, p)
	return nil
}

func printProfile(a *App, p *client.Profile) {
	fmt.Fprintf(a.out, "Username:    %s\n", p.Username)
	fmt.Fprintf(a.out, "Email:       %s\n", p.Email)
	fmt.Fprintf(a.out, "First name:  %s\n", p.FirstName)
	fmt.Fprintf(a.out, "Last name:   %s\n", p.LastName)
	fmt.Fprintf(a.out, "Date joined: %s\n", p.DateJoined.Local().Format("2006-01-02 15:04"))
}
