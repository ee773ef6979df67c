package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "analyze [project-root]",
		Short: "Map a Java project's repositories and services to tables",
		Long: `Scans the project's .java and .kt files for Repository and Service classes, infers the
table behind each repository, groups services into business scenarios and writes the
project configuration (bugfix.project.auto.json under the project root by default).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			root := ""
			if len(args) == 1 {
				root = args[0]
			}

			svc := newServiceSet(cfg, a.logger)
			summary, err := svc.Analyzer.Analyze(cmd.Context(), root, output)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:       %s\n", summary.ProjectRoot)
			fmt.Fprintf(out, "Files scanned: %d\n", summary.FilesScanned)
			fmt.Fprintf(out, "Repositories:  %d\n", summary.Repositories)
			fmt.Fprintf(out, "Services:      %d\n", summary.Services)
			fmt.Fprintf(out, "Scenarios:     %d\n", summary.Scenarios)
			if len(summary.Tables) > 0 {
				fmt.Fprintf(out, "Tables:        %s\n", strings.Join(summary.Tables, ", "))
			}
			fmt.Fprintf(out, "Configuration written to %s\n", summary.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the project configuration")
	return cmd
}
