package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/services"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		req     services.QueryRequest
		execute bool
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Render a query template for a table",
		Long: `Fills one of the query templates generated by analyze for the table. With --execute the
query is run against the configured database and the rows are printed.`,
		Example: `  ekaya-bugfix query orders --condition "cust_no = '12345'"
  ekaya-bugfix query orders --kind timerange --start 2024-05-01 --end 2024-05-02 --execute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(execute)
			if err != nil {
				return err
			}
			req.Table = args[0]

			svc := newServiceSet(cfg, a.logger)
			out := cmd.OutOrStdout()

			if !execute {
				rendered, err := svc.Query.Render(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered.SQL)
				return nil
			}

			outcome, err := svc.Query.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n\n", outcome.Query.SQL)
			return printRows(out, outcome.Result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Kind, "kind", "basic", "template kind: basic, count or timerange")
	flags.StringVar(&req.Condition, "condition", "", "SQL condition for basic and count queries")
	flags.StringVar(&req.StartTime, "start", "", "start of the range for timerange queries")
	flags.StringVar(&req.EndTime, "end", "", "end of the range for timerange queries")
	flags.StringVar(&req.ProjectConfigPath, "project-config", "", "project configuration written by analyze")
	flags.IntVar(&req.Limit, "limit", 0, "max rows to return with --execute (default: database.maxQueryLimit)")
	flags.BoolVar(&execute, "execute", false, "run the query against the configured database")
	return cmd
}

// printRows writes a query result as an aligned table.
func printRows(out io.Writer, result *datasource.QueryExecutionResult) error {
	if result == nil || len(result.Columns) == 0 {
		fmt.Fprintln(out, "(no rows)")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	names := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		names[i] = col.Name
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))

	for _, row := range result.Rows {
		values := make([]string, len(names))
		for i, name := range names {
			if v := row[name]; v != nil {
				values[i] = fmt.Sprint(v)
			} else {
				values[i] = "NULL"
			}
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n(%d rows)\n", result.RowCount)
	return nil
}
