// Package admin implements the account-creation tool. Accounts are never
// created over HTTP.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/equipview/internal/server/services"
	"golang.org/x/term"
)

// Test seams.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

type options struct {
	dsn       string
	username  string
	email     string
	firstName string
	lastName  string
	cost      int
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dsn, "d", "", "database DSN (postgres://... or sqlite:<path>)")
	fs.StringVar(&o.username, "user", "", "username of the new account")
	fs.StringVar(&o.email, "email", "", "email")
	fs.StringVar(&o.firstName, "first", "", "first name")
	fs.StringVar(&o.lastName, "last", "", "last name")
	fs.IntVar(&o.cost, "cost", 10, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.dsn == "" || o.username == "" {
		return nil, errors.New("both -d and -user are required")
	}
	return o, nil
}

// Run creates one account and returns the process exit code. On a terminal
// the password is read twice without echo; otherwise the first line of
// stdin is used.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	password, err := readNewPassword(stdin, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	db, rm, err := repomanager.Open(ctx, o.dsn)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer db.Close()

	if err := rm.RunMigrations(ctx, db); err != nil {
		fmt.Fprintln(stderr, "migrations:", err)
		return 1
	}

	svc := services.NewAccountService(db, rm, o.cost, logging.Nop{})
	a, err := svc.Create(ctx, services.NewAccount{
		Username:  o.username,
		Password:  password,
		Email:     o.email,
		FirstName: o.firstName,
		LastName:  o.lastName,
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		fmt.Fprintf(stderr, "username %q is already taken\n", o.username)
		return 1
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "created account %s (%s)\n", a.Username, a.ID)
	return 0
}

func readNewPassword(stdin io.Reader, prompt io.Writer) (string, error) {
	fd := stdinFd()
	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	fmt.Fprint(prompt, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
