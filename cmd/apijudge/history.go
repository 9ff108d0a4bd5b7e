package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/apijudge/internal/database"
	"github.com/at-ishikawa/apijudge/internal/history"
	"github.com/at-ishikawa/apijudge/internal/report"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	command := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored runs, or show the results of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()
			repo := history.NewDBRepository(db)

			if len(args) == 1 {
				results, err := repo.FindResults(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("repo.FindResults() > %w", err)
				}
				return report.NewConsoleWriter(cmd.OutOrStdout()).Write(cmd.Context(), report.Run{ID: args[0], Results: results})
			}

			runs, err := repo.FindRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("repo.FindRuns() > %w", err)
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}

	command.Flags().IntVar(&limit, "limit", history.DefaultRunLimit, "Maximum number of runs to list")

	return command
}

func printRuns(out io.Writer, runs []history.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs stored yet.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tSUITE\tBACKEND\tSTARTED\tPASSED\tFAILED\tERRORS"); err != nil {
		return err
	}
	for _, run := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%d\n",
			run.ID, run.SuiteName, run.Backend,
			run.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			run.Passed, run.Total, run.Failed, run.Errored,
		); err != nil {
			return err
		}
	}
	return w.Flush()
}
