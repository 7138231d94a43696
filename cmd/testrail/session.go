package testrail

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
)

// session carries what every command needs to reach TestRail
type session struct {
	config     *testrail.Config
	logger     *common.Logger
	clientOpts []testrail.ClientOption
	output     string
}

func newSession(globalOpts *common.GlobalOptions) (*session, error) {
	config, err := testrail.LoadConfig(globalOpts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := *globalOpts
	opts.Verbose = opts.Verbose || config.Verbose
	logger := common.NewLoggerFromOptions(&opts, "TESTRAIL")

	clientOpts, err := config.ClientOptions(logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using TestRail instance %s as %s", config.TestRail.BaseURL, config.TestRail.Username)

	return &session{
		config:     config,
		logger:     logger,
		clientOpts: clientOpts,
		output:     globalOpts.Output,
	}, nil
}

func (s *session) extension() (*testrail.Extension, error) {
	ext := testrail.NewExtension(s.clientOpts...)
	if err := ext.Initialize(s.config.ExtensionSettings()); err != nil {
		return nil, fmt.Errorf("failed to initialize TestRail extension: %w", err)
	}
	return ext, nil
}

func (s *session) query(opts ...testrail.QueryOption) (*testrail.Query, error) {
	q, err := testrail.NewQuery(s.config.QuerySettings(), s.clientOpts, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create TestRail query: %w", err)
	}
	return q, nil
}

func (s *session) registry() (*testrail.Registry, error) {
	ext, err := s.extension()
	if err != nil {
		return nil, err
	}
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	reg := testrail.NewExtensionRegistry(ext)
	testrail.RegisterQueryTools(reg, q)
	return reg, nil
}

func (s *session) print(cmd *cobra.Command, v interface{}) error {
	return printResult(cmd.OutOrStdout(), s.output, v)
}

// optionalInt returns the flag value only when the user set it
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return testrail.Ptr(v)
}

func optionalString(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return testrail.Ptr(v)
}

func optionalBool(cmd *cobra.Command, name string, v bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return testrail.Ptr(v)
}
