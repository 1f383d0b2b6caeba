package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nicuwatch/nicudash/pkg/client"
	"github.com/spf13/cobra"
)

func newLimitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Review and change per-patient alarm limits",
	}

	cmd.AddCommand(newLimitsGetCmd())
	cmd.AddCommand(newLimitsSetCmd())

	return cmd
}

func newLimitsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <patient-id>",
		Short: "Show a patient's alarm limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			limits, err := apiClient.Patients().GetAlarmLimits(cmd.Context(), ids[0])
			if err != nil {
				return fmt.Errorf("failed to get alarm limits: %w", err)
			}
			return printLimits(cmd, limits)
		},
	}
}

func newLimitsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <patient-id> <param>=<low>:<high>...",
		Short:   "Replace a patient's alarm limits",
		Example: `  nicudash limits set 12 hr=100:180 spo2=88:95`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:1])
			if err != nil {
				return err
			}
			limits, err := parseLimits(args[1:])
			if err != nil {
				return err
			}
			updated, err := apiClient.Patients().UpdateAlarmLimits(cmd.Context(), ids[0], limits)
			if err != nil {
				return fmt.Errorf("failed to update alarm limits: %w", err)
			}
			return printLimits(cmd, updated)
		},
	}
}

func parseLimits(args []string) (client.AlarmLimits, error) {
	limits := make(client.AlarmLimits, len(args))
	for _, arg := range args {
		param, bounds, ok := strings.Cut(arg, "=")
		if !ok || param == "" {
			return nil, fmt.Errorf("invalid limit %q, want <param>=<low>:<high>", arg)
		}
		lowStr, highStr, ok := strings.Cut(bounds, ":")
		if !ok {
			return nil, fmt.Errorf("invalid limit %q, want <param>=<low>:<high>", arg)
		}
		low, err := strconv.ParseFloat(lowStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid low limit in %q", arg)
		}
		high, err := strconv.ParseFloat(highStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid high limit in %q", arg)
		}
		limits[strings.ToLower(param)] = []float64{low, high}
	}
	return limits, nil
}

func printLimits(cmd *cobra.Command, limits *client.PatientAlarmLimits) error {
	out := cmd.OutOrStdout()
	if getOutputFormat() != "table" {
		return printOutput(out, limits)
	}

	params := make([]string, 0, len(limits.AlarmLimits))
	for p := range limits.AlarmLimits {
		params = append(params, p)
	}
	sort.Strings(params)

	t := NewTable(out, "PARAMETER", "LOW", "HIGH")
	for _, p := range params {
		b := limits.AlarmLimits[p]
		if len(b) != 2 {
			continue
		}
		t.AddRow(p, strconv.FormatFloat(b[0], 'g', -1, 64), strconv.FormatFloat(b[1], 'g', -1, 64))
	}
	t.Render()
	return nil
}
