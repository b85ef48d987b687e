package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd(client *Client) *cobra.Command {
	var explain bool
	var analyze bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL query against the catalog",
		Example: `  datamesa query "SELECT region, SUM(amount) FROM sales GROUP BY region"
  datamesa query --explain "SELECT * FROM sales WHERE amount > 100"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if explain || analyze {
				data, err := client.CallTool(cmd.Context(), "explain_query", map[string]interface{}{
					"query":   args[0],
					"analyze": analyze,
				})
				if err != nil {
					return err
				}
				if getOutputFormat(cmd) == "json" {
					return PrintRawJSON(os.Stdout, data)
				}
				var payload struct {
					Plan string `json:"plan"`
				}
				if err := unmarshalData(data, &payload); err != nil {
					return err
				}
				_, err = os.Stdout.WriteString(payload.Plan + "\n")
				return err
			}

			data, err := client.CallTool(cmd.Context(), "execute_query", map[string]string{"query": args[0]})
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}
			return printQueryResult(os.Stdout, data)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the query plan instead of running the query")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Show the query plan with execution timings")
	return cmd
}
