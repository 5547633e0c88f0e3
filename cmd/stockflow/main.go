// Package main provides the stockflow command line tool for checking and
// formatting workflow documents offline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/stockflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := NewCommand()

	// exit coder errors are reported and exited on by cli itself
	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewCommand builds the stockflow command tree.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:                  "stockflow",
		Usage:                 "Check and format warehouse workflow definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), "text")

			return ctx, nil
		},
		Commands: []*cli.Command{
			ValidateCommand(),
			KindsCommand(),
			FmtCommand(),
		},
	}
}
