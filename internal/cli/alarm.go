package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nicuwatch/nicudash/pkg/client"
	"github.com/spf13/cobra"
)

func newAlarmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alarms",
		Aliases: []string{"alarm"},
		Short:   "View and act on NICU alarms",
	}

	cmd.AddCommand(newAlarmsListCmd())
	cmd.AddCommand(newAlarmsActionCmd("ack <id>...", "Acknowledge alarms", func(c *client.AlarmService, cmd *cobra.Command, ids []int64) (*client.ActionResult, error) {
		return c.Acknowledge(cmd.Context(), ids...)
	}))
	cmd.AddCommand(newAlarmsSilenceCmd())
	cmd.AddCommand(newAlarmsActionCmd("resolve <id>...", "Resolve alarms", func(c *client.AlarmService, cmd *cobra.Command, ids []int64) (*client.ActionResult, error) {
		return c.Resolve(cmd.Context(), ids...)
	}))
	cmd.AddCommand(newAlarmsDischargeCmd())

	return cmd
}

func newAlarmsListCmd() *cobra.Command {
	var status, alarmType string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the alarm feed, most severe first",
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := apiClient.Alarms().List(cmd.Context(), &client.AlarmListOptions{
				Status: status,
				Type:   alarmType,
				Page:   page,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("failed to list alarms: %w", err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, feed)
			}

			t := NewTable(out, "ID", "BED", "PATIENT", "SEVERITY", "STATUS", "MESSAGE", "TRIGGERED", "ACK BY")
			for _, a := range feed.Items {
				t.AddRow(
					strconv.FormatInt(a.ID, 10),
					a.BedLabel,
					truncate(a.PatientName, 20),
					formatSeverity(a.Type),
					formatStatus(a.Status),
					truncate(a.Message, 40),
					a.TriggeredAt.Local().Format("15:04:05"),
					a.AcknowledgedBy,
				)
			}
			t.Render()

			m := feed.Meta
			fmt.Fprintf(out, "\n%d of %d shown (offset %d). critical: %d  warning: %d  advisory: %d\n",
				len(feed.Items), m.Total, m.Offset, m.Critical, m.Warning, m.Advisory)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "active (default), acknowledged, silenced, resolved or all")
	cmd.Flags().StringVar(&alarmType, "type", "", "critical, warning or advisory")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (1-200)")

	return cmd
}

type alarmAction func(c *client.AlarmService, cmd *cobra.Command, ids []int64) (*client.ActionResult, error)

func newAlarmsActionCmd(use, short string, run alarmAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := run(apiClient.Alarms(), cmd, ids)
			if err != nil {
				return err
			}
			return printActionResult(cmd, res)
		},
	}
}

func newAlarmsSilenceCmd() *cobra.Command {
	var duration time.Duration

	cmd := newAlarmsActionCmd("silence <id>...", "Silence alarms for a bounded time", func(c *client.AlarmService, cmd *cobra.Command, ids []int64) (*client.ActionResult, error) {
		return c.Silence(cmd.Context(), int(duration/time.Second), ids...)
	})
	cmd.Flags().DurationVar(&duration, "for", 0, "silence duration, 30s to 10m (server default when omitted)")

	return cmd
}

func newAlarmsDischargeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discharge <patient-id>",
		Short: "Resolve every open alarm of a discharged patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := apiClient.Alarms().ResolvePatient(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printActionResult(cmd, res)
		},
	}
}

func printActionResult(cmd *cobra.Command, res *client.ActionResult) error {
	out := cmd.OutOrStdout()
	if getOutputFormat() != "table" {
		return printOutput(out, res)
	}

	fmt.Fprintln(out, res.Message)
	for _, a := range res.Alarms {
		line := fmt.Sprintf("  #%d %s", a.ID, formatStatus(a.Status))
		if a.SilencedUntil != nil {
			line += " until " + a.SilencedUntil.Local().Format("15:04:05")
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid ID: %s", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
