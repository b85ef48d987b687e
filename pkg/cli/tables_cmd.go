package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newTablesCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List loaded tables and active derived views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client.CallTool(cmd.Context(), "list_tables", nil)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var listing struct {
				Tables []struct {
					Name       string `json:"name"`
					RowCount   int64  `json:"row_count"`
					SourcePath string `json:"source_path"`
				} `json:"tables"`
				Views []string `json:"views"`
			}
			if err := json.Unmarshal(data, &listing); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			rows := make([][]string, 0, len(listing.Tables))
			for _, t := range listing.Tables {
				rows = append(rows, []string{t.Name, strconv.FormatInt(t.RowCount, 10), t.SourcePath})
			}
			PrintTable(os.Stdout, []string{"name", "rows", "source"}, rows)

			if len(listing.Views) > 0 {
				fmt.Fprintf(os.Stdout, "\nviews: %s\n", strings.Join(listing.Views, ", "))
			}
			return nil
		},
	}
}
