package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/usage"
	"mercator-hq/callisto/pkg/usage/classify"
	"mercator-hq/callisto/pkg/usage/client"
)

var usageFlags struct {
	format string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show current usage windows",
	Long: `Fetch the account's usage report once and print each quota window
with its consumption status.

The status compares utilization against how far the window has
elapsed: green is at or below pace, orange is up to 50% over pace,
red is further over or already exhausted, gray means no active
window.

Reads the OAuth credential file written by the Claude CLI; the
management server does not need to be running.

Examples:
  # Human-readable gauges
  callisto usage

  # Machine-readable report
  callisto usage --format json`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVar(&usageFlags.format, "format", "table", "output format: table, json")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usageFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// One read, no watcher.
	creds, err := credentials.NewSource(cfg.Credentials.Path, false)
	if err != nil {
		return cli.NewAuthError(err)
	}
	defer creds.Close()

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

	snap, err := client.New(cfg.Upstream, creds).Fetch(ctx)
	if err != nil {
		return mapFetchError(err)
	}

	now := time.Now()
	report := usage.BuildReport(snap, now, now, 0)

	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, report)
	}

	printReport(report)
	return nil
}

// mapFetchError translates fetch failures into CLI error types so the
// process exit code distinguishes credential problems from the rest.
func mapFetchError(err error) error {
	if errors.Is(err, credentials.ErrNoCredential) || errors.Is(err, credentials.ErrExpired) {
		return cli.NewAuthError(err)
	}

	var upErr *client.UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode == 401 {
		return cli.NewAuthError(err)
	}

	return cli.NewCommandError("usage", err)
}

func printReport(r usage.Report) {
	fmt.Printf("Usage as of %s\n\n", r.FetchedAt.Local().Format("15:04:05"))

	printWindow("Five-hour window", r.FiveHour)
	printWindow("Seven-day window", r.SevenDay)
	printExtra(r.ExtraUsage)
}

func printWindow(name string, w usage.WindowReport) {
	fmt.Printf("%-17s %s %5.1f%%  %s\n",
		name, cli.Bar(w.Utilization, cli.DefaultBarWidth), w.Utilization, statusLabel(w.Status))

	if w.Status == classify.StatusGray {
		fmt.Println()
		return
	}

	meta := fmt.Sprintf("  burn rate %.2fx, %.0f%% of window elapsed", w.BurnRate, w.PercentElapsed)
	if t, err := time.Parse(time.RFC3339, w.ResetsAt); err == nil {
		meta += fmt.Sprintf(", resets %s (%s)",
			t.Local().Format("15:04"), formatDuration(time.Until(t)))
	}
	fmt.Println(meta)
	fmt.Println()
}

func printExtra(e usage.ExtraReport) {
	if !e.IsEnabled {
		fmt.Printf("%-17s disabled\n", "Extra usage")
		return
	}

	fmt.Printf("%-17s %s %5.1f%%  %s\n",
		"Extra usage", cli.Bar(e.PercentUsed, cli.DefaultBarWidth), e.PercentUsed, statusLabel(e.Status))
	// Credit amounts arrive in cents.
	fmt.Printf("  $%.2f of $%.2f used this month\n", e.UsedCredits/100, e.MonthlyLimit/100)
}

// statusLabel pairs the stable status identifier with its operator-facing
// reading.
func statusLabel(s classify.Status) string {
	switch s {
	case classify.StatusGreen:
		return "green (on track)"
	case classify.StatusOrange:
		return "orange (over pace)"
	case classify.StatusRed:
		return "red (critical)"
	default:
		return "gray (inactive)"
	}
}

// formatDuration renders a duration as compact days, hours, and minutes.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)

	if d >= 24*time.Hour {
		days := int(d.Hours()) / 24
		hours := int(d.Hours()) % 24
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	if d >= time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
