/*
Package cli holds helpers shared by the cocorels commands: typed command
errors with exit codes, output formatters and signal handling.

Output Formatting:

Commands print results as text, JSON or CSV:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, rep)

CSV output needs a value implementing Table.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli
