package testrail

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
)

func NewToolsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tools",
		Short:         "List and call the registered TestRail tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewListToolsCommand(globalOpts))
	cmd.AddCommand(NewCallToolCommand(globalOpts))
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	return cmd
}

// Catalog returns the registered tools without connecting to TestRail.
// The handlers are bound to an uninitialized extension and must not be called.
func Catalog() []testrail.Tool {
	reg := testrail.NewExtensionRegistry(testrail.NewExtension())
	testrail.RegisterQueryTools(reg, nil)
	return reg.Tools()
}

func NewListToolsCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the tools with their parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return printResult(cmd.OutOrStdout(), globalOpts.Output, Catalog())
	}
	return cmd
}

type CallToolOptions struct {
	Args     string
	ArgsFile string
}

func NewCallToolCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	opts := &CallToolOptions{}

	cmd := &cobra.Command{
		Use:   "call [tool]",
		Short: "Call a tool with JSON arguments",
		Long: `Call a registered tool the way a tool host would, with its arguments as a
JSON object.

Examples:
  goose-testrail tools call get_tests --args '{"run_id": 12, "status_id": [5]}'
  goose-testrail tools call get_failed_and_blocked --args-file args.json
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&opts.Args, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().StringVar(&opts.ArgsFile, "args-file", "", "File holding the tool arguments as a JSON object")
	cmd.MarkFlagsMutuallyExclusive("args", "args-file")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		raw := json.RawMessage(opts.Args)
		if opts.ArgsFile != "" {
			content, err := os.ReadFile(opts.ArgsFile)
			if err != nil {
				return fmt.Errorf("failed to read arguments file: %w", err)
			}
			raw = content
		}

		s, err := newSession(globalOpts)
		if err != nil {
			return err
		}
		reg, err := s.registry()
		if err != nil {
			return err
		}
		s.logger.Debug("Calling tool %s with %s", args[0], string(raw))
		result, err := reg.Call(cmd.Context(), args[0], raw)
		if err != nil {
			return err
		}
		return s.print(cmd, result)
	}
	return cmd
}
