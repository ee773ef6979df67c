package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/sql"
)

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file|->",
		Short: "Extract business information from a local log file",
		Long:  "Runs the log extractor over a file, or over stdin when the argument is -.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			result := newServiceSet(cfg, a.logger).Extractor.Extract(cmd.Context(), text)

			out := cmd.OutOrStdout()
			printExtraction(out, result)
			if tables := sql.UniqueTables(result.DataStatements); len(tables) > 0 {
				fmt.Fprintf(out, "\nReferenced tables: %s\n", strings.Join(tables, ", "))
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
