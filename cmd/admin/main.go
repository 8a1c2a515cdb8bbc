package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/equipview/internal/server/admin"
)

func main() {
	os.Exit(admin.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
