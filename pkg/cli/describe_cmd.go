package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newDescribeCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the schema, row count, and sample rows of a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.CallTool(cmd.Context(), "describe_table", map[string]string{"table": args[0]})
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var detail struct {
				Name    string `json:"name"`
				Columns []struct {
					Name     string `json:"name"`
					Type     string `json:"type"`
					Nullable bool   `json:"nullable"`
				} `json:"columns"`
				RowCount int64           `json:"row_count"`
				Sample   json.RawMessage `json:"sample"`
			}
			if err := json.Unmarshal(data, &detail); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Fprintf(os.Stdout, "table: %s\nrows: %d\n\n", detail.Name, detail.RowCount)

			rows := make([][]string, 0, len(detail.Columns))
			for _, c := range detail.Columns {
				rows = append(rows, []string{c.Name, c.Type, strconv.FormatBool(c.Nullable)})
			}
			PrintTable(os.Stdout, []string{"column", "type", "nullable"}, rows)

			if len(detail.Sample) > 0 && string(detail.Sample) != "null" {
				fmt.Fprintln(os.Stdout, "\nsample:")
				if err := printQueryResult(os.Stdout, detail.Sample); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
