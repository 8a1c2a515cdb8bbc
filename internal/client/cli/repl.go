package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const helpText = `Available commands:
  login                 log in (credentials are kept in memory only)
  upload <path>         upload a CSV file
  history               list the five most recent uploads
  show <id>             show the summary and rows of an upload
  report <id> [pdf|txt] download a report
  source <id>           download the original CSV
  profile               show or edit your profile
  passwd                change your password
  logout                forget the credentials
  help                  show this help
  exit | quit           leave the program`

// runREPL reads commands until EOF, "exit" or "quit". Command errors are
// printed and the loop continues.
func (a *App) runREPL(ctx context.Context) {
	for {
		fmt.Fprintf(a.out, "equipview %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(a.out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if quit := a.exec(ctx, parts[0], parts[1:]); quit {
			return
		}
	}
}

func (a *App) exec(ctx context.Context, cmd string, args []string) bool {
	var err error

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, helpText)
	case "login":
		err = a.Login(ctx)
	case "logout":
		a.Logout()
	case "upload":
		err = a.withLogin(func() error { return a.Upload(ctx, args) })
	case "history", "l":
		err = a.withLogin(func() error { return a.History(ctx) })
	case "show":
		err = a.withLogin(func() error { return a.Show(ctx, args) })
	case "report":
		err = a.withLogin(func() error { return a.Report(ctx, args) })
	case "source":
		err = a.withLogin(func() error { return a.Source(ctx, args) })
	case "profile":
		err = a.withLogin(func() error { return a.Profile(ctx) })
	case "passwd":
		err = a.withLogin(func() error { return a.ChangePassword(ctx) })
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}

	if err != nil {
		a.report(err)
	}
	return false
}

func (a *App) withLogin(fn func() error) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	return fn()
}

type usageError string

func (e usageError) Error() string { return "usage: " + string(e) }
