package auth

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "auth",
		Short:         "Manage the TestRail API key stored in the system keyring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewSetKeyCommand())
	cmd.AddCommand(NewGetKeyCommand())
	cmd.AddCommand(NewDeleteKeyCommand())
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	return cmd
}

type KeyringOption struct {
	service string
	secret  string
	key     string
}

func addKeyringFlags(cmd *cobra.Command, opts *KeyringOption) {
	cmd.Flags().StringVar(&opts.service, "service", common.DefaultKeyringService, "The keyring service name")
	cmd.Flags().StringVar(&opts.secret, "secret", common.DefaultKeyringSecret, "The keyring entry name")
}

func NewSetKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store a TestRail API key in the system keyring",
		Long: `Store a TestRail API key in the system keyring. The key is read from --key
or, when the flag is omitted, from the first line of stdin.

Reference it from the configuration file with:
  api_key: {{ ''|keyring:'testrail,api_key' }}
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts := &KeyringOption{}
	addKeyringFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.key, "key", opts.key, "The API key")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		key := opts.key
		if key == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("Failed to read the API key from stdin: %w", err)
			}
			key = strings.TrimSpace(line)
		}
		if key == "" {
			return fmt.Errorf("the API key must not be empty")
		}
		if err := common.SetKeyringSecret(opts.service, opts.secret, key); err != nil {
			return err
		}
		cmd.Printf("Stored the API key in keyring service %s as %s\n", opts.service, opts.secret)
		return nil
	}
	return cmd
}

func NewGetKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "get-key",
		Short:         "Print the TestRail API key stored in the system keyring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts := &KeyringOption{}
	addKeyringFlags(cmd, opts)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		key, err := common.GetKeyringSecret(opts.service, opts.secret)
		if err != nil {
			return err
		}
		cmd.Printf("%s\n", key)
		return nil
	}
	return cmd
}

func NewDeleteKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete-key",
		Short:         "Remove the TestRail API key from the system keyring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts := &KeyringOption{}
	addKeyringFlags(cmd, opts)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := common.DeleteKeyringSecret(opts.service, opts.secret); err != nil {
			return err
		}
		cmd.Printf("Removed %s from keyring service %s\n", opts.secret, opts.service)
		return nil
	}
	return cmd
}
