package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dukex/stockflow/pkg/graph"
	"github.com/dukex/stockflow/pkg/log"
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/validation"
	"github.com/dukex/stockflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// errHasErrors is returned by validate when the workflow cannot be published.
var errHasErrors = cli.Exit("workflow has validation errors", 1)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Report the issues of a workflow document",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the report as JSON",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			wf, err := readWorkflow(command.Args().First())
			if err != nil {
				return err
			}

			reg := registry.Default()

			g, err := workflow.NewSerializer(reg).Decode(wf)
			if err != nil {
				return err
			}

			report := validation.New(reg, log.WithModule("validate")).Validate(g)
			out := command.Root().Writer

			if command.Bool("json") {
				err = writeJSON(out, report)
			} else {
				err = printReport(out, wf, g, report, time.Now())
			}

			if err != nil {
				return err
			}

			if report.HasErrors() {
				return errHasErrors
			}

			return nil
		},
	}
}

func printReport(out io.Writer, wf *models.Workflow, g models.Graph, report validation.Report, now time.Time) error {
	fmt.Fprintf(out, "%s: %d errors, %d warnings\n", wf.Name, len(report.Errors()), len(report.Warnings()))

	if len(report.Issues) > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

		for _, issue := range report.Issues {
			target := issue.NodeID
			if target == "" {
				target = issue.EdgeID
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Code, target, issue.Message)
		}

		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, node := range g.Nodes {
		trigger, ok := node.Config.(*models.TriggerConfig)
		if !ok {
			continue
		}

		next, err := registry.NextRun(trigger, now)
		switch {
		case err == nil:
			fmt.Fprintf(out, "next run of %q: %s\n", node.Label, next.Format(time.RFC1123))
		case !errors.Is(err, registry.ErrNotScheduled):
			fmt.Fprintf(out, "schedule of %q is invalid: %v\n", node.Label, err)
		}
	}

	return nil
}

func KindsCommand() *cli.Command {
	return &cli.Command{
		Name:  "kinds",
		Usage: "Print the node kinds and their configuration schemas as JSON",
		Action: func(ctx context.Context, command *cli.Command) error {
			return writeJSON(command.Root().Writer, registry.Default().Describe())
		},
	}
}

func FmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Rewrite a workflow document in canonical form",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write the result back to FILE instead of standard output",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()

			wf, err := readWorkflow(path)
			if err != nil {
				return err
			}

			reg := registry.Default()
			serializer := workflow.NewSerializer(reg)
			store := graph.NewStore(reg, graph.WithLogger(log.WithModule("fmt")))

			if err := serializer.Load(store, wf); err != nil {
				return err
			}

			canonical, err := serializer.Encode(wf, store.Snapshot())
			if err != nil {
				return err
			}

			data, err := workflow.Marshal(canonical)
			if err != nil {
				return err
			}

			data = append(data, '\n')

			if command.Bool("write") {
				return os.WriteFile(path, data, 0600)
			}

			_, err = command.Root().Writer.Write(data)

			return err
		},
	}
}

func readWorkflow(path string) (*models.Workflow, error) {
	if path == "" {
		return nil, cli.Exit("a workflow FILE is required", 2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	return workflow.Unmarshal(data)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
