package core

import (
	"crypto/x509"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/Purneema-rathod/goose-testrail/pkg/testrail"
	"github.com/Purneema-rathod/goose-testrail/pkg/tls"
)

func NewTLSCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tls",
		Short:        "Check the TLS setup used to reach TestRail",
		SilenceUsage: true,
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	cmd.AddCommand(NewCAInspectCommand())
	cmd.AddCommand(NewTLSCheckCommand(globalOpts))
	return cmd
}

// ============    CA-INSPECT COMMAND     ==============================

type CAInspectOptions struct {
	CACertFile string
}

func NewCAInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inspect",
		Short:         "List the certificates of a CA bundle file",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	opts := &CAInspectOptions{}
	cmd.Flags().StringVar(&opts.CACertFile, "ca-cert-file", opts.CACertFile, "The CA bundle file to inspect.")
	cmd.MarkFlagRequired("ca-cert-file")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		certs, err := tls.LoadCertificates(opts.CACertFile)
		if err != nil {
			return fmt.Errorf("Failed to load the CA bundle: %w", err)
		}
		printCertificates(cmd.OutOrStdout(), certs, time.Now())
		return nil
	}
	return cmd
}

// ============    TLS-CHECK COMMAND     ==============================

type TLSCheckOptions struct {
	URL    string
	Client *tls.ClientOptions
}

func BindClientOptions(opts *tls.ClientOptions, flags *flag.FlagSet) {
	flags.StringVar(&opts.CACertFile, "ca-cert-file", opts.CACertFile, "The CA bundle trusted in addition to the system roots.")
	flags.BoolVar(&opts.InsecureSkipVerify, "insecure-skip-verify", opts.InsecureSkipVerify, "Skip the server certificate verification.")
}

func NewTLSCheckCommand(globalOpts *common.GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the TestRail server certificate is trusted",
		Long: `Perform a TLS handshake with the TestRail server using the same certificate
settings as the API client. The server URL and the TLS settings default to the
ones of the configuration file; flags override them.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	opts := &TLSCheckOptions{Client: tls.DefaultClientOptions()}
	cmd.Flags().StringVar(&opts.URL, "url", opts.URL, "The TestRail server URL.")
	BindClientOptions(opts.Client, cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		config, err := testrail.LoadConfig(globalOpts.ConfigFile)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("url") {
			opts.URL = config.TestRail.BaseURL
		}
		if opts.URL == "" {
			return fmt.Errorf("--url or testrail.base_url must be specified")
		}
		fromConfig := config.TLSOptions()
		if !cmd.Flags().Changed("ca-cert-file") {
			opts.Client.CACertFile = fromConfig.CACertFile
		}
		if !cmd.Flags().Changed("insecure-skip-verify") {
			opts.Client.InsecureSkipVerify = fromConfig.InsecureSkipVerify
		}

		certs, err := tls.Probe(cmd.Context(), opts.URL, opts.Client)
		if err != nil {
			return err
		}
		if opts.Client.InsecureSkipVerify {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", color.YellowString("! Connected to %s without verifying its certificate", opts.URL))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", color.GreenString("✓ The certificate of %s is trusted", opts.URL))
		}
		printCertificates(cmd.OutOrStdout(), certs, time.Now())
		return nil
	}
	return cmd
}

func printCertificates(w io.Writer, certs []*x509.Certificate, now time.Time) {
	for i, cert := range certs {
		validity := color.GreenString("valid until %s", cert.NotAfter.Format(time.RFC3339))
		if now.After(cert.NotAfter) {
			validity = color.RedString("expired on %s", cert.NotAfter.Format(time.RFC3339))
		}
		fmt.Fprintf(w, "[%d] %s\n", i, cert.Subject)
		fmt.Fprintf(w, "    issuer: %s\n", cert.Issuer)
		fmt.Fprintf(w, "    %s\n", validity)
	}
}
