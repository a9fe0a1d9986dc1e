package main

import (
	"fmt"

	"github.com/alevsk/sass-inject/internal/variables"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRenderCmd(ro *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the SASS declarations built from the configured variables",
		Long: `Print the SASS declarations built from the configured variables, exactly as
they are prepended to each stylesheet.

Examples:
  sass-inject render --var color=red --var size=10px

  # Show the merged variables instead
  sass-inject render -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := ro.variables()
			if err != nil {
				return fmt.Errorf("error resolving variables: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "scss":
				if decl := variables.Serialize(vars); decl != "" {
					fmt.Fprintln(out, decl)
				}
			case "yaml":
				yamlOutput, err := yaml.Marshal(vars)
				if err != nil {
					return fmt.Errorf("error formatting variables to YAML: %w", err)
				}
				fmt.Fprint(out, string(yamlOutput))
			default:
				return fmt.Errorf("unknown output format: %s", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "scss", "output format (scss, yaml)")
	return cmd
}
