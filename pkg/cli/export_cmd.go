package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(client *Client) *cobra.Command {
	var format string
	var filename string

	cmd := &cobra.Command{
		Use:   "export <sql>",
		Short: "Run a query and write the full result to a file on the server",
		Example: `  datamesa export "SELECT * FROM sales" --format parquet
  datamesa export "SELECT * FROM sales WHERE region = 'east'" --filename east_sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"query": args[0]}
			if format != "" {
				req["format"] = format
			}
			if filename != "" {
				req["filename"] = filename
			}

			data, err := client.CallTool(cmd.Context(), "export_data", req)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var result struct {
				Path     string `json:"path"`
				Format   string `json:"format"`
				RowCount int64  `json:"row_count"`
			}
			if err := unmarshalData(data, &result); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "exported %d rows (%s) to %s\n", result.RowCount, result.Format, result.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv, parquet, or json (default csv)")
	cmd.Flags().StringVar(&filename, "filename", "", "Output file name inside the server's export directory")
	return cmd
}
