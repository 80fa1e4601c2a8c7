package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verscout/verscout/pkg/fetch"
	"github.com/verscout/verscout/pkg/strategy"
)

// strategiesCommand creates the strategies listing command.
func (c *CLI) strategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered detection strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := strategy.DefaultRegistry(fetch.NewHTTPFetcher(nil))

			for _, d := range registry.Descriptors() {
				host := d.Host
				if host == "" {
					host = "(entry URL)"
				}
				fmt.Printf("%s %s %s\n",
					StyleVersion.Render(fmt.Sprintf("%-10s", d.ID)),
					StyleValue.Render(fmt.Sprintf("priority %3d  %-8s", d.Priority, d.Capability)),
					StyleDim.Render(host))
			}
			return nil
		},
	}
}
