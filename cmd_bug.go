package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

func newBugCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bug",
		Short: "Manage bug investigations",
		Long: `A bug investigation is a directory under bugfix.baseDir (.vibedev/bugfix by default) holding
the session, the saved logs, analyses and reports of one bug.`,
	}

	cmd.AddCommand(
		newBugStartCmd(a),
		newBugListCmd(a),
		newBugAnalyzeCmd(a),
		newBugReportCmd(a),
	)
	return cmd
}

func newBugStartCmd(a *app) *cobra.Command {
	var req services.StartRequest

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a bug investigation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			session, err := newServiceSet(cfg, a.logger).Bugfix.Start(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Started bug %s (session %s)\n", session.BugID, session.SessionID)
			next := "ekaya-bugfix bug analyze " + session.BugID
			if session.TraceID == "" {
				next += " --trace-id <trace-id>"
			}
			fmt.Fprintf(out, "Next: %s\n", next)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.BugID, "bug-id", "", "bug identifier (default: generated)")
	flags.StringVar(&req.TraceID, "trace-id", "", "trace ID of the failing request")
	flags.StringVar(&req.BugURL, "url", "", "link to the bug in the issue tracker")
	flags.StringVar(&req.Description, "description", "", "what the user observed")
	return cmd
}

func newBugListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bug investigations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			sessions, err := newServiceSet(cfg, a.logger).Bugfix.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No bug investigations.")
				return nil
			}
			for _, s := range sessions {
				line := fmt.Sprintf("%s  %s", s.BugID, s.CreatedAt.Format("2006-01-02 15:04"))
				if s.TraceID != "" {
					line += "  trace=" + s.TraceID
				}
				if s.Description != "" {
					line += "  " + s.Description
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newBugAnalyzeCmd(a *app) *cobra.Command {
	var traceID string

	cmd := &cobra.Command{
		Use:   "analyze <bug-id>",
		Short: "Search the logs for a bug and correlate them with the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(true)
			if err != nil {
				return err
			}

			analysis, err := newServiceSet(cfg, a.logger).Bugfix.Analyze(cmd.Context(), args[0], traceID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if analysis.Search.Failed() {
				fmt.Fprintf(out, "Search failed: %s\n", analysis.Search.Error)
			} else {
				fmt.Fprintf(out, "Found %d lines for trace %s\n", analysis.Search.LinesCount, analysis.TraceID)
			}
			printExtraction(out, analysis.Extraction)
			printCorrelation(out, analysis)
			if analysis.LogFile != "" {
				fmt.Fprintf(out, "\nLog saved to %s\n", analysis.LogFile)
			}
			fmt.Fprintf(out, "Analysis saved to %s\n", analysis.AnalysisFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&traceID, "trace-id", "", "trace ID to search for (default: the one given to bug start)")
	return cmd
}

// printCorrelation writes the tables, scenarios and suggested queries of an analysis.
func printCorrelation(out io.Writer, analysis *models.BugAnalysis) {
	if len(analysis.ReferencedTables) > 0 {
		fmt.Fprintf(out, "\nReferenced tables: %s\n", strings.Join(analysis.ReferencedTables, ", "))
	}
	for _, s := range analysis.Scenarios {
		fmt.Fprintf(out, "Scenario: %s (%s)\n", s.Scenario, strings.Join(s.CoreTables, ", "))
	}
	for _, table := range slices.Sorted(maps.Keys(analysis.SuggestedQueries)) {
		fmt.Fprintf(out, "Suggested query for %s: %s\n", table, analysis.SuggestedQueries[table])
	}
}

func newBugReportCmd(a *app) *cobra.Command {
	var report models.BugReport

	cmd := &cobra.Command{
		Use:   "report <bug-id>",
		Short: "Write the bug analysis report",
		Long:  "Writes a markdown report under the bug's reports directory. Sections left empty are marked as not provided.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			report.BugID = args[0]
			path, err := newServiceSet(cfg, a.logger).Bugfix.Report(cmd.Context(), report)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&report.UserInfo, "user-info", "", "affected user and identifiers")
	flags.StringVar(&report.BusinessScenario, "business-scenario", "", "business scenario and services involved")
	flags.StringVar(&report.InterfaceParams, "interface-params", "", "request parameters of the failing interface")
	flags.StringVar(&report.LogAnalysis, "log-analysis", "", "findings from the logs")
	flags.StringVar(&report.TableData, "table-data", "", "relevant rows from the database")
	flags.StringVar(&report.ExternalAPIResponse, "external-api-response", "", "responses from external systems")
	flags.StringVar(&report.ProblemLocation, "problem-location", "", "class, method or query where the problem occurs")
	flags.StringVar(&report.PossibleCause, "possible-cause", "", "root cause analysis")
	flags.StringVar(&report.ImpactScope, "impact-scope", "", "users, data or features affected")
	flags.StringVar(&report.FixSuggestions, "fix-suggestions", "", "proposed fix and data repair")
	return cmd
}
