package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/apijudge/internal/config"
	"github.com/at-ishikawa/apijudge/internal/database"
	"github.com/at-ishikawa/apijudge/internal/history"
	"github.com/at-ishikawa/apijudge/internal/inference/backends"
	"github.com/at-ishikawa/apijudge/internal/report"
	"github.com/at-ishikawa/apijudge/internal/suite"
)

func newRunCommand() *cobra.Command {
	var (
		filter    suite.Filter
		formats   []string
		outputDir string
	)

	command := &cobra.Command{
		Use:   "run suite.yml",
		Short: "Run a test suite against an API and write reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Reports.Formats = formats
			}
			if outputDir != "" {
				cfg.Reports.Directory = outputDir
			}

			s, err := loadSuite(args[0], cfg, filter)
			if err != nil {
				return err
			}

			client, closeClient, err := backends.New(cmd.Context(), cfg.Backend, cfg)
			if err != nil {
				return fmt.Errorf("backends.New() > %w", err)
			}
			defer func() {
				_ = closeClient()
			}()

			runner := suite.NewRunner(backends.NewValidator(client, cfg),
				suite.WithParallelism(cfg.Runner.Parallelism),
				suite.WithHTTPTimeout(cfg.HTTP.Timeout),
				suite.WithSlowThreshold(cfg.HTTP.SlowThreshold),
				suite.WithFailOnSecurityIssues(cfg.Runner.FailOnSecurityIssues),
			)
			run, err := runner.Run(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("runner.Run() > %w", err)
			}

			writers, err := report.NewWriters(cfg.Reports.Formats, cmd.OutOrStdout(), cfg.Reports.Directory, cfg.Reports.Template)
			if err != nil {
				return fmt.Errorf("report.NewWriters() > %w", err)
			}
			if cfg.Database.Enabled {
				db, err := database.Open(cfg.Database)
				if err != nil {
					return fmt.Errorf("database.Open() > %w", err)
				}
				defer func() {
					_ = db.Close()
				}()
				writers = append(writers, history.NewWriter(history.NewDBRepository(db)))
			}
			if err := writers.Write(cmd.Context(), run); err != nil {
				return fmt.Errorf("failed to write reports: %w", err)
			}

			if !run.Succeeded() {
				summary := run.Summary()
				return fmt.Errorf("%d of %d cases did not pass", summary.Failed+summary.Errored, summary.Total)
			}
			return nil
		},
	}

	command.Flags().Var(&filter.Include, "run", "Run only cases whose name matches this regex (repeatable)")
	command.Flags().Var(&filter.Exclude, "skip", "Skip cases whose name matches this regex (repeatable)")
	command.Flags().StringSliceVar(&formats, "format", nil, "Report formats (console, markdown, pdf, json); defaults to reports.formats")
	command.Flags().StringVar(&outputDir, "output-dir", "", "Directory for report files; defaults to reports.directory")

	return command
}

func loadSuite(path string, cfg *config.Config, filter suite.Filter) (suite.Suite, error) {
	s, err := suite.Load(path)
	if err != nil {
		return suite.Suite{}, fmt.Errorf("suite.Load() > %w", err)
	}
	if cfg.HTTP.BaseURL != "" {
		s.BaseURL = cfg.HTTP.BaseURL
	}

	filtered, skipped := filter.Apply(s)
	if len(skipped) > 0 {
		slog.Info("Skipping cases",
			"run", filter.Include.String(),
			"skip", filter.Exclude.String(),
			"cases", skipped)
	}
	if len(filtered.Cases) == 0 {
		return suite.Suite{}, fmt.Errorf("no case in %s matches the filter", s.Name)
	}
	slog.Debug("Loaded suite", "name", s.Name, "cases", len(filtered.Cases), "skipped", len(skipped))
	return filtered, nil
}
