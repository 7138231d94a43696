package testrail

import (
	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
)

// NewCommands returns the top level TestRail commands
func NewCommands(globalOpts *common.GlobalOptions) []*cobra.Command {
	return []*cobra.Command{
		NewProjectsCommand(globalOpts),
		NewCasesCommand(globalOpts),
		NewRunsCommand(globalOpts),
		NewTestsCommand(globalOpts),
		NewResultsCommand(globalOpts),
		NewReportCommand(globalOpts),
		NewExportCommand(globalOpts),
		NewToolsCommand(globalOpts),
	}
}

func NewProjectsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "projects",
		Short:         "List all TestRail projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		ext, err := s.extension()
		if err != nil {
			return err
		}
		projects, err := ext.GetProjects(cmd.Context())
		if err != nil {
			return err
		}
		return s.print(cmd, projects)
	}
	return cmd
}

type ListCasesOptions struct {
	ProjectID int
	SuiteID   int
}

func NewCasesCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &ListCasesOptions{}

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the test cases of a project",
		Long: `List the test cases of a project, optionally restricted to one suite.

Examples:
  # All cases of project 1
  goose-testrail cases --project-id 1

  # Cases of suite 4 in project 1, as YAML
  goose-testrail cases --project-id 1 --suite-id 4 -o yaml
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.Flags().IntVar(&opts.ProjectID, "project-id", 0, "ID of the project")
	cmd.Flags().IntVar(&opts.SuiteID, "suite-id", 0, "ID of the test suite")
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
		cases, err := ext.GetTestCases(cmd.Context(), opts.ProjectID, testrail.CasesOptions{
			SuiteID: optionalInt(cmd, "suite-id", opts.SuiteID),
		})
		if err != nil {
			return err
		}
		return s.print(cmd, cases)
	}
	return cmd
}
