package testrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
	"github.com/Purneema-rathod/goose-testrail/pkg/utils"
)

func NewRunsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "Manage TestRail test runs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewListRunsCommand(globalOpts))
	cmd.AddCommand(NewGetRunCommand(globalOpts))
	cmd.AddCommand(NewCreateRunCommand(globalOpts))
	cmd.AddCommand(NewCloseRunCommand(globalOpts))
	cmd.AddCommand(NewWaitRunCommand(globalOpts))
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	return cmd
}

type ListRunsOptions struct {
	ProjectID     int
	CreatedAfter  int64
	CreatedBefore int64
	CreatedBy     []int
	Completed     bool
	Limit         int
	Offset        int
}

func NewListRunsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ListRunsOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the test runs of a project",
		Long: `List the test runs of a project.

Examples:
  # Active runs of project 1
  goose-testrail runs list --project-id 1 --completed=false

  # First page of runs created by users 3 and 5 since a UNIX timestamp
  goose-testrail runs list --project-id 1 --created-by 3,5 --created-after 1700000000 --limit 50
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.ProjectID, "project-id", 0, "ID of the project")
	cmd.Flags().Int64Var(&opts.CreatedAfter, "created-after", 0, "Only runs created after this UNIX timestamp")
	cmd.Flags().Int64Var(&opts.CreatedBefore, "created-before", 0, "Only runs created before this UNIX timestamp")
	cmd.Flags().IntSliceVar(&opts.CreatedBy, "created-by", nil, "Only runs created by these user IDs")
	cmd.Flags().BoolVar(&opts.Completed, "completed", false, "Only completed (true) or active (false) runs")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of runs to return")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of runs to skip")
	cmd.MarkFlagRequired("project-id")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}

		filter := testrail.RunsFilter{
			CreatedBy:   opts.CreatedBy,
			IsCompleted: optionalBool(cmd, "completed", opts.Completed),
			Limit:       optionalInt(cmd, "limit", opts.Limit),
			Offset:      optionalInt(cmd, "offset", opts.Offset),
		}
		if cmd.Flags().Changed("created-after") {
			filter.CreatedAfter = testrail.Ptr(time.Unix(opts.CreatedAfter, 0))
		}
		if cmd.Flags().Changed("created-before") {
			filter.CreatedBefore = testrail.Ptr(time.Unix(opts.CreatedBefore, 0))
		}

		runs, err := ext.GetTestRuns(cmd.Context(), opts.ProjectID, filter)
		if err != nil {
			return err
		}
		return s.print(cmd, runs)
	}
	return cmd
}

func idArg(kind, v string) (int, error) {
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", kind, v)
	}
	return id, nil
}

func NewGetRunCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "get [run-id]",
		Short:         "Show a test run",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		runID, err := idArg("run", args[0])
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
		run, err := ext.GetTestRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		return s.print(cmd, run)
	}
	return cmd
}

type CreateRunOptions struct {
	ProjectID   int
	Name        string
	SuiteID     int
	Description string
	IncludeAll  bool
	CaseIDs     []int
}

func NewCreateRunCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &CreateRunOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a test run",
		Long: `Create a test run in a project. Passing --case-ids restricts the run to
those cases; otherwise every case of the suite is included.

Examples:
  # Run every case of suite 2
  goose-testrail runs create --project-id 1 --suite-id 2 --name "Nightly"

  # Run only two cases
  goose-testrail runs create --project-id 1 --name "Smoke" --case-ids 5,6
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.ProjectID, "project-id", 0, "ID of the project")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of the test run")
	cmd.Flags().IntVar(&opts.SuiteID, "suite-id", 0, "ID of the test suite")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Description of the test run")
	cmd.Flags().BoolVar(&opts.IncludeAll, "include-all", true, "Include all cases of the suite")
	cmd.Flags().IntSliceVar(&opts.CaseIDs, "case-ids", nil, "Case IDs to include; implies --include-all=false")
	cmd.MarkFlagRequired("project-id")
	cmd.MarkFlagRequired("name")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}
		run, err := ext.CreateTestRun(cmd.Context(), opts.ProjectID, testrail.RunInput{
			Name:        opts.Name,
			SuiteID:     optionalInt(cmd, "suite-id", opts.SuiteID),
			Description: optionalString(cmd, "description", opts.Description),
			IncludeAll:  optionalBool(cmd, "include-all", opts.IncludeAll),
			CaseIDs:     opts.CaseIDs,
		})
		if err != nil {
			return err
		}
		s.logger.Info("Created test run %q", opts.Name)
		return s.print(cmd, run)
	}
	return cmd
}

func NewCloseRunCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "close [run-id]",
		Short:         "Close a test run",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		runID, err := idArg("run", args[0])
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
		run, err := ext.CloseTestRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		s.logger.Info("Closed test run %d", runID)
		return s.print(cmd, run)
	}
	return cmd
}

type WaitRunOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

// runSettled reports whether every test of the run has a result, or the run is closed
func runSettled(run testrail.Object) bool {
	if done, ok := run["is_completed"].(bool); ok && done {
		return true
	}
	untested, ok := run.Int("untested_count")
	return ok && untested == 0
}

func NewWaitRunCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &WaitRunOptions{}

	cmd := &cobra.Command{
		Use:   "wait [run-id]",
		Short: "Wait until every test of a run has a result",
		Long: `Poll a test run until none of its tests is untested any more or the run is
closed, then print the run. Useful in pipelines before reporting on or closing
a run that automated jobs are still filling.

Examples:
  goose-testrail runs wait 12 --interval 30s --timeout 15m
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}
	cmd.Flags().DurationVar(&opts.Interval, "interval", utils.DefaultInterval, "Time between two polls")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", utils.DefaultTimeout, "Maximum time to wait")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		runID, err := idArg("run", args[0])
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

		run, err := utils.Eventually(cmd.Context(),
			func(ctx context.Context) (testrail.Object, error) {
				raw, err := ext.GetTestRun(ctx, runID)
				if err != nil {
					return nil, err
				}
				var run testrail.Object
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.UseNumber()
				if err := dec.Decode(&run); err != nil {
					return nil, fmt.Errorf("failed to parse test run %d: %w", runID, err)
				}
				untested, _ := run.Int("untested_count")
				s.logger.Debug("Run %d has %d untested tests", runID, untested)
				return run, nil
			},
			runSettled, opts.Interval, opts.Timeout)
		if err != nil {
			return fmt.Errorf("test run %d did not settle: %w", runID, err)
		}
		return s.print(cmd, run)
	}
	return cmd
}
