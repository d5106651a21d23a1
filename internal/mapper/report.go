package mapper

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintReport writes a human-readable summary of the run: a count table
// followed by the per-category granule listings.
func PrintReport(w io.Writer, report *RunReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "S1 to RTC-S1 Mapping Report")

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"Category", "Count"})
	tbl.AppendRow(table.Row{"Total S1 granules", humanize.Comma(int64(report.Summary.TotalInput))})
	tbl.AppendRow(table.Row{"With RTC products", humanize.Comma(int64(report.Summary.Matched))})
	tbl.AppendRow(table.Row{"Without RTC products", humanize.Comma(int64(report.Summary.Missing))})
	tbl.AppendRow(table.Row{"Invalid identifiers", humanize.Comma(int64(report.Summary.Invalid))})
	tbl.AppendRow(table.Row{"Query errors", humanize.Comma(int64(report.Summary.QueryErrors))})
	tbl.AppendFooter(table.Row{"Total RTC granules", humanize.Comma(int64(report.Summary.TotalRTCGranules))})
	tbl.Render()

	printMatched(w, report)
	printByStatus(w, report, StatusMissing, color.New(color.FgYellow), "MISSING RTC-S1 GRANULES:")
	printByStatus(w, report, StatusInvalid, color.New(color.FgRed), "INVALID INPUT IDENTIFIERS:")
	printByStatus(w, report, StatusQueryError, color.New(color.FgRed), "QUERY ERRORS (undetermined, not missing):")
	fmt.Fprintln(w)
}

func printMatched(w io.Writer, report *RunReport) {
	if report.Summary.Matched == 0 {
		return
	}

	green := color.New(color.FgGreen)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "FOUND RTC-S1 GRANULES:")

	for _, mapping := range report.Mappings {
		if mapping.Status != StatusMatched {
			continue
		}

		fmt.Fprintf(w, "\nS1:  %s\n", mapping.S1Granule)

		if len(mapping.RTCGranules) == 1 {
			fmt.Fprintf(w, "RTC: %s\n", green.Sprint(mapping.RTCGranules[0]))

			continue
		}

		fmt.Fprintf(w, "RTC: %d granules:\n", len(mapping.RTCGranules))

		for _, rtcID := range mapping.RTCGranules {
			fmt.Fprintf(w, "     - %s\n", green.Sprint(rtcID))
		}
	}
}

func printByStatus(w io.Writer, report *RunReport, status Status, paint *color.Color, heading string) {
	first := true

	for _, mapping := range report.Mappings {
		if mapping.Status != status {
			continue
		}

		if first {
			fmt.Fprintln(w)
			fmt.Fprintln(w, heading)

			first = false
		}

		fmt.Fprintf(w, "S1: %s\n", paint.Sprint(mapping.S1Granule))

		if mapping.Error != "" {
			fmt.Fprintf(w, "    Error: %s\n", mapping.Error)
		}
	}
}
