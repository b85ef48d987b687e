package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newToolsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintRawJSON(os.Stdout, data)
			}

			var payload struct {
				Tools []struct {
					Name        string `json:"name"`
					Description string `json:"description"`
				} `json:"tools"`
			}
			if err := unmarshalData(data, &payload); err != nil {
				return err
			}

			rows := make([][]string, 0, len(payload.Tools))
			for _, t := range payload.Tools {
				rows = append(rows, []string{t.Name, t.Description})
			}
			PrintTable(os.Stdout, []string{"name", "description"}, rows)
			return nil
		},
	}
}
