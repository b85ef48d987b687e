package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRefreshCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rescan the data directory and reconcile the catalog now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client.CallTool(cmd.Context(), "refresh_tables", nil)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var outcome struct {
				ID           string   `json:"id"`
				DurationMs   int64    `json:"duration_ms"`
				ScannedFiles int      `json:"scanned_files"`
				NewFiles     []string `json:"new_files"`
				UpdatedFiles []string `json:"updated_files"`
				DeletedFiles []string `json:"deleted_files"`
				Failed       []struct {
					Path  string `json:"path"`
					Error string `json:"error"`
				} `json:"failed"`
				TableCount int `json:"table_count"`
			}
			if err := unmarshalData(data, &outcome); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "refresh %s finished in %dms\n", outcome.ID, outcome.DurationMs)
			fmt.Fprintf(os.Stdout, "scanned %d files: %d new, %d updated, %d deleted; %d tables loaded\n",
				outcome.ScannedFiles, len(outcome.NewFiles), len(outcome.UpdatedFiles), len(outcome.DeletedFiles), outcome.TableCount)
			for _, f := range outcome.Failed {
				fmt.Fprintf(os.Stdout, "failed: %s: %s\n", f.Path, f.Error)
			}
			return nil
		},
	}
}
