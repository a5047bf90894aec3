/*
The errors package provides a contextual error type and printing utilities for failures that occur
while probing targets or writing the reports of a load test run.

ProbeError records which URL and which worker produced a failed request. ReportError records which
file and format could not be written. PrintError walks nested multierror trees (as returned by
loadtest.Retry) and logs every leaf with an indent matching its depth.

Usage

	import errors2 "github.com/pt3002/CN-Project/pkg/errors"

	...

	if err := report.SaveFile(ctx, name, report.CSV, run.Records()); err != nil {
		errors2.PrintError(err, 0)
		return fmt.Errorf("failed to save report: %w", err)
	}

*/
package errors
