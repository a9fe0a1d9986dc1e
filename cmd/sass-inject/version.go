package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func newVersionCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sass-inject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				jsonOutput, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version to JSON: %w", err)
				}
				fmt.Fprintln(out, string(jsonOutput))
			case "yaml":
				yamlOutput, err := yaml.Marshal(info)
				if err != nil {
					return fmt.Errorf("error formatting version to YAML: %w", err)
				}
				fmt.Fprint(out, string(yamlOutput))
			case "plain":
				fmt.Fprintf(out, "%s (built: %s commit: %s)\n", info.Version, info.Date, info.Commit)
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "plain", "output format (plain, json, yaml)")
	return cmd
}
