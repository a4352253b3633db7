package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTickCommand(load configLoader) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run a single sensor tick and print the result",
		Long: `Run one tick against the configured cursor store, emit the result to the
configured sinks, persist the new cursor, and print the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q", output)
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg)

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.runner.Tick(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(result); err != nil {
					return err
				}
				return enc.Close()
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json|yaml)")
	return cmd
}
