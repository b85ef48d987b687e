// Package cli implements the datamesa command-line client. Commands talk to
// a running server over the tool API; flags beat environment variables,
// which beat the active config profile.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.Status
				if apiErr.Query != "" {
					errObj["query"] = apiErr.Query
				}
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		profile string
	)

	client := NewClient("http://localhost:8080")

	rootCmd := &cobra.Command{
		Use:           "datamesa",
		Short:         "Dataset catalog and analytics CLI",
		Long:          "Command-line client for the datamesa server: browse the live catalog, run queries, and trigger refreshes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Config file is optional.
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}
			p := cfg.ActiveProfile(profile)

			// Precedence: flag > env > profile > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("DATAMESA_HOST"); v != "" {
					host = v
				} else if p.Host != "" {
					host = p.Host
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("DATAMESA_OUTPUT"); v != "" {
					output = v
				} else if p.Output != "" {
					output = p.Output
				}
			}

			if err := validateOutputFormat(output); err != nil {
				return err
			}
			client.BaseURL = host
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newTablesCmd(client))
	rootCmd.AddCommand(newDescribeCmd(client))
	rootCmd.AddCommand(newQueryCmd(client))
	rootCmd.AddCommand(newExportCmd(client))
	rootCmd.AddCommand(newRefreshCmd(client))
	rootCmd.AddCommand(newStatusCmd(client))
	rootCmd.AddCommand(newToolsCmd(client))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
