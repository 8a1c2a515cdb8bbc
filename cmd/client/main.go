package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/equipview/internal/client/cli"
	"github.com/dmitrijs2005/equipview/internal/client/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := cli.NewApp(cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Run(context.Background())
}
