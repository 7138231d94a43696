package testrail

import (
	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
)

type ListTestsOptions struct {
	RunID    int
	Statuses []string
}

func NewTestsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ListTestsOptions{}

	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List the tests of a run",
		Long: `List the tests of a run, optionally filtered by status. Statuses are given
by name (passed, blocked, untested, retest, failed) or by ID.

Examples:
  goose-testrail tests --run-id 12 --status failed,blocked
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.RunID, "run-id", 0, "ID of the test run")
	cmd.Flags().StringSliceVar(&opts.Statuses, "status", nil, "Only tests with these statuses")
	cmd.MarkFlagRequired("run-id")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		filter := testrail.TestsFilter{}
		for _, v := range opts.Statuses {
			status, err := testrail.ParseStatus(v)
			if err != nil {
				return err
			}
			filter.StatusIDs = append(filter.StatusIDs, status)
		}

		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}
		tests, err := ext.GetTests(cmd.Context(), opts.RunID, filter)
		if err != nil {
			return err
		}
		return s.print(cmd, tests)
	}
	return cmd
}

func NewResultsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "results",
		Short:         "Read and record test results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewListResultsCommand(globalOpts))
	cmd.AddCommand(NewAddResultCommand(globalOpts))
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	return cmd
}

type ListResultsOptions struct {
	TestID int
	Limit  int
	Offset int
}

func NewListResultsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ListResultsOptions{}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the results of a test, most recent first",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.TestID, "test-id", 0, "ID of the test")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results to return")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")
	cmd.MarkFlagRequired("test-id")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}
		results, err := ext.GetTestResults(cmd.Context(), opts.TestID, testrail.ResultsFilter{
			Limit:  optionalInt(cmd, "limit", opts.Limit),
			Offset: optionalInt(cmd, "offset", opts.Offset),
		})
		if err != nil {
			return err
		}
		return s.print(cmd, results)
	}
	return cmd
}

type AddResultOptions struct {
	TestID       int
	Status       string
	Comment      string
	Version      string
	Elapsed      string
	Defects      string
	AssignedToID int
}

func NewAddResultCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &AddResultOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a result for a test",
		Long: `Add a result for a test.

Examples:
  # Mark test 42 as failed with a defect reference
  goose-testrail results add --test-id 42 --status failed --comment "Login times out" --defects BUG-17

  # Record a pass against a build
  goose-testrail results add --test-id 42 --status passed --version 2.4.1 --elapsed 1m30s
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.TestID, "test-id", 0, "ID of the test")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Result status: passed, blocked, untested, retest, failed or an ID")
	cmd.Flags().StringVar(&opts.Comment, "comment", "", "Comment about the result")
	cmd.Flags().StringVar(&opts.Version, "version", "", "Version or build tested against")
	cmd.Flags().StringVar(&opts.Elapsed, "elapsed", "", "Time spent, e.g. 30s or 1m 45s")
	cmd.Flags().StringVar(&opts.Defects, "defects", "", "Comma-separated defect IDs")
	cmd.Flags().IntVar(&opts.AssignedToID, "assigned-to", 0, "User the test is assigned to")
	cmd.MarkFlagRequired("test-id")
	cmd.MarkFlagRequired("status")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		status, err := testrail.ParseStatus(opts.Status)
		if err != nil {
			return err
		}

		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}
		result, err := ext.AddTestResult(cmd.Context(), opts.TestID, testrail.ResultInput{
			StatusID:     status,
			Comment:      optionalString(cmd, "comment", opts.Comment),
			Version:      optionalString(cmd, "version", opts.Version),
			Elapsed:      optionalString(cmd, "elapsed", opts.Elapsed),
			Defects:      optionalString(cmd, "defects", opts.Defects),
			AssignedToID: optionalInt(cmd, "assigned-to", opts.AssignedToID),
		})
		if err != nil {
			return err
		}
		s.logger.Info("Recorded %s result for test %d", status, opts.TestID)
		return s.print(cmd, result)
	}
	return cmd
}
