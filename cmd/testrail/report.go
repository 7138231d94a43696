package testrail

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
)

type ReportOptions struct {
	RunID      int
	NoProgress bool
}

func NewReportCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the failed and blocked tests of a run",
		Long: `Show the failed and blocked tests of a run together with their most recent
result. The latest result of every failed or blocked test is fetched one at a
time, so large runs take a while; progress is reported on stderr.

Examples:
  goose-testrail report --run-id 12
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.RunID, "run-id", 0, "ID of the test run")
	cmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "Do not show the progress bar")
	cmd.MarkFlagRequired("run-id")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}

		var queryOpts []testrail.QueryOption
		var bar *progressbar.ProgressBar
		if !opts.NoProgress {
			queryOpts = append(queryOpts, testrail.WithProgress(func(done, total int) {
				if bar == nil {
					bar = newProgressBar(cmd.ErrOrStderr(), total)
				}
				bar.Set(done)
			}))
		}

		q, err := s.query(queryOpts...)
		if err != nil {
			return err
		}
		report, err := q.FailedAndBlocked(cmd.Context(), opts.RunID)
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), opts.RunID, report)
		return nil
	}
	return cmd
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Fetching latest results")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

func printReport(w io.Writer, runID int, report *testrail.FailedAndBlocked) {
	if len(report.Failed) == 0 && len(report.Blocked) == 0 {
		fmt.Fprintf(w, "%s\n", color.GreenString("✓ No failed or blocked tests in run %d", runID))
		return
	}

	fmt.Fprintf(w, "%s\n", color.CyanString("Run %d: %d failed, %d blocked", runID, len(report.Failed), len(report.Blocked)))
	printSection(w, color.RedString("✗ Failed"), report.Failed)
	printSection(w, color.YellowString("! Blocked"), report.Blocked)
}

func printSection(w io.Writer, title string, tests []testrail.Object) {
	if len(tests) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, test := range tests {
		id, _ := test.Int("id")
		fmt.Fprintf(w, "  T%d  %v\n", id, test["title"])

		latest, ok := test["latest_result"].(testrail.Object)
		if !ok {
			fmt.Fprintf(w, "      %s\n", color.HiBlackString("no results recorded"))
			continue
		}
		if comment, ok := latest["comment"].(string); ok && comment != "" {
			fmt.Fprintf(w, "      %s %s\n", color.YellowString("Latest:"), firstLine(comment))
		}
		if defects, ok := latest["defects"].(string); ok && defects != "" {
			fmt.Fprintf(w, "      %s %s\n", color.YellowString("Defects:"), defects)
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

type ExportOptions struct {
	RunID         int
	SpreadsheetID string
}

func NewExportCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Prepare the export of a run's failed and blocked tests to a Google Sheet",
		Long: `Collect the run details and its failed and blocked tests and print what
would be exported to the given Google Sheet. Nothing is written to the sheet.

Examples:
  goose-testrail export --run-id 12 --spreadsheet-id 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.RunID, "run-id", 0, "ID of the test run")
	cmd.Flags().StringVar(&opts.SpreadsheetID, "spreadsheet-id", "", "ID of the Google Sheet")
	cmd.MarkFlagRequired("run-id")
	cmd.MarkFlagRequired("spreadsheet-id")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		q, err := s.query()
		if err != nil {
			return err
		}
		record, err := q.ExportToSpreadsheet(cmd.Context(), opts.RunID, opts.SpreadsheetID)
		if err != nil {
			return err
		}
		return s.print(cmd, record)
	}
	return cmd
}
