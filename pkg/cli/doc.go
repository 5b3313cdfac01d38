/*
Package cli provides command-line interface utilities for PromptBoost.

The cli package includes output formatters, progress reporters, exit
code mapping, and signal helpers used by the promptboost command.

Output Formatting:

The cli package supports multiple output formats (text, JSON, CSV) for
displaying command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	data := MyCommandResult{...}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

CSV output requires the result type to implement TableMarshaler, which
supplies the header and rows.

Exit Codes:

Command errors map to process exit codes so scripts can branch on the
failure class: 1 for generic failures, 2 for configuration errors, 3
for rejected credentials. Commands return cli error types and the root
command resolves the code:

	os.Exit(cli.ExitCode(err))

Progress Reporting:

For long-running operations, use the progress reporter:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(totalItems)
	for i := 0; i < totalItems; i++ {
		// Do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

For graceful cancellation on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// Pass ctx to operations that should stop on interrupt.
*/
package cli
