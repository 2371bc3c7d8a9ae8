package main

import (
	"context"
	"os"

	"github.com/vsinha/oilanalysis/pkg/interfaces/cli/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
