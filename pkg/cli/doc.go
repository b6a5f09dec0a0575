/*
Package cli provides shared helpers for the callisto command.

It covers the command surface's cross-cutting pieces: typed errors with
process exit codes, table and JSON output, utilization bar rendering,
and shutdown signal handling.

Exit codes:

	0  success
	1  command failed
	2  configuration problem
	3  missing or expired OAuth credential

Output formatting:

	table := cli.NewTable(os.Stdout, "ID", "NAME", "PREFIX")
	for _, k := range keys {
		table.Row(k.ID, k.Name, k.Prefix)
	}
	if err := table.Flush(); err != nil {
		return err
	}

The usage command renders quota windows as text gauges:

	fmt.Printf("five_hour  %s %5.1f%%\n", cli.Bar(report.FiveHour.Utilization, 0), report.FiveHour.Utilization)

Signal handling for graceful shutdown:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	// ctx is cancelled on SIGINT/SIGTERM
*/
package cli
