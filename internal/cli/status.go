package cli

import (
	"fmt"
	"strings"

	"github.com/nicuwatch/nicudash/pkg/client"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and active alarm counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			health, err := apiClient.Health(ctx)
			if err != nil {
				return fmt.Errorf("server not ready: %w", err)
			}
			feed, err := apiClient.Alarms().List(ctx, &client.AlarmListOptions{Status: client.StatusActive, Limit: 1})
			if err != nil {
				return fmt.Errorf("failed to read alarm feed: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(out, map[string]interface{}{
					"server": health,
					"active": feed.Meta,
				})
			}

			fmt.Fprintln(out, "NICU Alarm Dashboard")
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "  Server:    %s (database %s)\n", health.Status, health.Database)
			if health.Events != "" {
				fmt.Fprintf(out, "  Events:    %s\n", health.Events)
			}
			fmt.Fprintf(out, "  Active:    %d\n", feed.Meta.Total)
			fmt.Fprintf(out, "    critical %d  warning %d  advisory %d\n", feed.Meta.Critical, feed.Meta.Warning, feed.Meta.Advisory)
			return nil
		},
	}
}
