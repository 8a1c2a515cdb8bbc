package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/equipview/internal/client/client"
	"github.com/dmitrijs2005/equipview/internal/client/config"
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

type App struct {
	config   *config.Config
	api      client.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, api, in, out), nil
}

func newApp(c *config.Config, api client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return "(" + a.userName + ") "
}

// Run greets the user, tries to log in and then serves commands until exit
// or end of input.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to equipview CLI (type 'help' for commands)")
	if err := a.api.Ping(ctx); err != nil {
		a.report(err)
	}
	a.runREPL(ctx)
}

// report prints a command failure in user terms.
func (a *App) report(err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Error: invalid credentials, please log in again")
	case errors.Is(err, client.ErrNotFound):
		fmt.Fprintln(a.out, "Error: not found")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Error: server unavailable")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
