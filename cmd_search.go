package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/models"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/remote"
)

const (
	// cliPreviewLines and cliPreviewWidth bound the excerpt printed by search.
	cliPreviewLines = 5
	cliPreviewWidth = 150
)

func newSearchCmd(a *app) *cobra.Command {
	var bugID string

	cmd := &cobra.Command{
		Use:   "search <trace-id>",
		Short: "Search the log server for a trace ID",
		Long: `Greps the configured log server over SSH for the trace ID, prints a short preview and the
business information found in the matching lines, and saves the full output locally
(in the bug's logs directory with --bug-id).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(true)
			if err != nil {
				return err
			}

			svc := newServiceSet(cfg, a.logger)
			outcome, err := svc.LogSearch.Search(cmd.Context(), args[0], bugID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Result.Failed() {
				fmt.Fprintf(out, "Search failed: %s\n", outcome.Result.Error)
				return nil
			}

			fmt.Fprintf(out, "Found %d lines for trace %s\n", outcome.Result.LinesCount, outcome.Result.TraceID)
			if outcome.LogFile != "" {
				fmt.Fprintf(out, "Full log saved to %s\n", outcome.LogFile)
			}
			preview := remote.Preview(outcome.Result.Output, cliPreviewLines, cliPreviewWidth)
			if len(preview) > 0 {
				fmt.Fprintln(out, "\nPreview:")
				for _, line := range preview {
					fmt.Fprintf(out, "  %s\n", line)
				}
			}
			printExtraction(out, outcome.Extraction)
			return nil
		},
	}

	cmd.Flags().StringVar(&bugID, "bug-id", "", "save the log under this bug's logs directory")
	return cmd
}

// printExtraction writes the extracted business information in sections.
// Empty sections are skipped.
func printExtraction(out io.Writer, result models.ExtractionResult) {
	sections := []struct {
		title string
		lines []string
	}{
		{"Trace IDs", result.TraceIDs},
		{"User identifiers", result.UserIdentifiers},
		{"SQL statements", result.DataStatements},
		{"Errors", result.ErrorSignatures},
		{"External calls", result.ExternalCallSignatures},
	}

	for _, s := range sections {
		if len(s.lines) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d):\n", s.title, len(s.lines))
		if s.title == "Trace IDs" || s.title == "User identifiers" {
			fmt.Fprintf(out, "  %s\n", strings.Join(s.lines, ", "))
			continue
		}
		for _, line := range s.lines {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
}
