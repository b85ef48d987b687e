package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog state, refresh history, and recent tool calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client.CallTool(cmd.Context(), "catalog_status", nil)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var status struct {
				AutoRefresh     bool   `json:"auto_refresh"`
				RefreshInterval string `json:"refresh_interval"`
				TableCount      int    `json:"table_count"`
				ViewCount       int    `json:"view_count"`
				LastRefresh     *struct {
					StartedAt  string `json:"started_at"`
					DurationMs int64  `json:"duration_ms"`
				} `json:"last_refresh"`
				History []struct {
					ID           string   `json:"id"`
					StartedAt    string   `json:"started_at"`
					DurationMs   int64    `json:"duration_ms"`
					ScannedFiles int      `json:"scanned_files"`
					NewFiles     []string `json:"new_files"`
					UpdatedFiles []string `json:"updated_files"`
					DeletedFiles []string `json:"deleted_files"`
				} `json:"history"`
				RecentCalls []struct {
					Tool       string `json:"tool"`
					Status     string `json:"status"`
					DurationMs int64  `json:"duration_ms"`
					CreatedAt  string `json:"created_at"`
				} `json:"recent_calls"`
			}
			if err := unmarshalData(data, &status); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "auto refresh:     %t\n", status.AutoRefresh)
			fmt.Fprintf(os.Stdout, "refresh interval: %s\n", status.RefreshInterval)
			fmt.Fprintf(os.Stdout, "tables:           %d\n", status.TableCount)
			fmt.Fprintf(os.Stdout, "views:            %d\n", status.ViewCount)
			if status.LastRefresh != nil {
				fmt.Fprintf(os.Stdout, "last refresh:     %s (%dms)\n", status.LastRefresh.StartedAt, status.LastRefresh.DurationMs)
			}

			if len(status.History) > 0 {
				fmt.Fprintln(os.Stdout, "\nrefresh history:")
				rows := make([][]string, 0, len(status.History))
				for _, h := range status.History {
					rows = append(rows, []string{
						h.StartedAt,
						fmt.Sprintf("%dms", h.DurationMs),
						fmt.Sprintf("%d", h.ScannedFiles),
						fmt.Sprintf("%d", len(h.NewFiles)),
						fmt.Sprintf("%d", len(h.UpdatedFiles)),
						fmt.Sprintf("%d", len(h.DeletedFiles)),
					})
				}
				PrintTable(os.Stdout, []string{"started", "took", "scanned", "new", "updated", "deleted"}, rows)
			}

			if len(status.RecentCalls) > 0 {
				fmt.Fprintln(os.Stdout, "\nrecent tool calls:")
				rows := make([][]string, 0, len(status.RecentCalls))
				for _, c := range status.RecentCalls {
					rows = append(rows, []string{c.CreatedAt, c.Tool, c.Status, fmt.Sprintf("%dms", c.DurationMs)})
				}
				PrintTable(os.Stdout, []string{"at", "tool", "status", "took"}, rows)
			}
			return nil
		},
	}
}
