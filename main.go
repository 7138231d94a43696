package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/joho/godotenv"
	"k8s.io/apimachinery/pkg/util/yaml"

	"github.com/Purneema-rathod/goose-testrail/cmd/auth"
	core "github.com/Purneema-rathod/goose-testrail/cmd/core"
	"github.com/Purneema-rathod/goose-testrail/cmd/testrail"
	"github.com/Purneema-rathod/goose-testrail/pkg/common"
	"github.com/spf13/cobra"
)

const NAME string = "goose-testrail"

type ProjectInformation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

//go:embed project.yaml
var projectInfoBytes []byte

func getVersion() string {
	projectInfo := &ProjectInformation{}
	if err := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(projectInfoBytes), 100).Decode(&projectInfo); err != nil {
		panic(err)
	}
	return projectInfo.Version
}

// GetRevision returns the overall codebase version. It's for detecting
// what code a binary was built from.
func GetRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "<unknown>"
	}
	for _, setting := range bi.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return "<unknown>"
}

func VersionString() string {
	return fmt.Sprintf("%s version: %s, (Revision: %s)", NAME, getVersion(), GetRevision())
}

func VersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "version",
		Short:        "Show current version",
		SilenceUsage: true,
	}

	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Printf("%s\n", VersionString())
	}
	return cmd

}

func addCommands(rootCommand *cobra.Command, globalOpts *common.GlobalOptions) {
	rootCommand.AddCommand(VersionCommand())
	rootCommand.AddCommand(testrail.NewCommands(globalOpts)...)
	rootCommand.AddCommand(auth.NewAuthCommand())
	rootCommand.AddCommand(core.NewTLSCommand(globalOpts))
	rootCommand.AddCommand(core.NewDocCommand(rootCommand))
}

func main() {
	// A missing .env is fine; TESTRAIL_* may come from the shell or the config file.
	_ = godotenv.Load()

	globalOpts := common.DefaultGlobalOptions()
	cmd := &cobra.Command{
		Use:               NAME,
		Short:             "TestRail test management from the command line and tool hosts",
		SilenceUsage:      true,
		TraverseChildren:  true,
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(1)
		},
	}
	cmd.PersistentFlags().StringVarP(&globalOpts.ConfigFile, "config", "c", globalOpts.ConfigFile, "Path to configuration file")
	cmd.PersistentFlags().StringVarP(&globalOpts.Output, "output", "o", globalOpts.Output, "Output format: json or yaml")
	cmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", globalOpts.Verbose, "Enable verbose logging")

	cmd.Version = VersionString()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addCommands(cmd, globalOpts)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "\nAborted...")
		cancel()
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

}
