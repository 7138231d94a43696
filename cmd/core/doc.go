package core

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/Purneema-rathod/goose-testrail/cmd/testrail"
	"github.com/Purneema-rathod/goose-testrail/pkg/common"
)

func NewDocCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "doc",
		Short:        "Documentation related commands",
		SilenceUsage: true,
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		cmd.Help()
	}
	cmd.AddCommand(NewCobraDocGenCmd(rootCmd))
	cmd.AddCommand(NewToolsDocCmd())
	return cmd
}

type DocGenOptions struct {
	Output string
}

func NewCobraDocGenCmd(rootCmd *cobra.Command) *cobra.Command {
	opts := &DocGenOptions{}
	cmd := &cobra.Command{
		Use:          "cobra-doc-gen",
		Short:        "Generate the markdown documentation for the CLI",
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.Output, "output", opts.Output, "The directory the markdown files are written to.")
	cmd.MarkFlagRequired("output")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(opts.Output, 0o755); err != nil {
			return fmt.Errorf("Failed to create the output directory: %v\n", err)
		}
		err := doc.GenMarkdownTree(rootCmd, opts.Output)
		if err != nil {
			return fmt.Errorf("Failed to generate the documentation: %v\n", err)
		}
		cmd.Printf("The documentation is generated to %s\n", opts.Output)
		return nil
	}
	return cmd
}

const toolsTemplate = `# TestRail tools

| Tool | Description |
|------|-------------|
{% for tool in tools %}| [{{ tool.Name }}](#{{ tool.Name }}) | {{ tool.Description }} |
{% endfor %}
{% for tool in tools %}
## {{ tool.Name }}

{{ tool.Description }}
{% if tool.Params %}
| Parameter | Type | Required | Description |
|-----------|------|----------|-------------|
{% for p in tool.Params %}| ` + "`{{ p.Name }}`" + ` | {{ p.Type }} | {% if p.Required %}yes{% else %}no{% endif %} | {{ p.Description }} |
{% endfor %}{% else %}
No parameters.
{% endif %}{% endfor %}`

// RenderToolsMarkdown renders the tool catalog as a markdown reference
func RenderToolsMarkdown() (string, error) {
	renderer := common.NewTemplateRenderer()
	return renderer.Render(toolsTemplate, map[string]interface{}{
		"tools": testrail.Catalog(),
	})
}

func NewToolsDocCmd() *cobra.Command {
	opts := &DocGenOptions{}
	cmd := &cobra.Command{
		Use:          "tools",
		Short:        "Generate the markdown reference of the registered tools",
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.Output, "output", opts.Output, "The markdown file to write; stdout when empty.")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		content, err := RenderToolsMarkdown()
		if err != nil {
			return fmt.Errorf("Failed to generate the tools documentation: %v\n", err)
		}
		if opts.Output == "" {
			cmd.Print(content)
			return nil
		}
		if err := os.WriteFile(opts.Output, []byte(content), 0o644); err != nil {
			return fmt.Errorf("Failed to write the tools documentation: %v\n", err)
		}
		cmd.Printf("The tools documentation is generated to %s\n", opts.Output)
		return nil
	}
	return cmd
}
