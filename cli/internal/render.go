package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/procorepress/internal/render"
)

// newRegistry builds the shortcode registry from the CLI context
func (c *CliContext) newRegistry() (*render.Registry, error) {
	r, err := render.NewRenderer(c.Client,
		render.WithMarkdownDescriptions(c.AppConfig.Render.MarkdownDescriptions),
		render.WithLogger(c.Logger),
	)
	if err != nil {
		return nil, err
	}
	return render.NewRegistry(r), nil
}

func newRenderCommand() *cobra.Command {
	var (
		id        string
		companyID string
		attrFlags []string
	)

	cmd := &cobra.Command{
		Use:   "render SHORTCODE",
		Short: "Render one shortcode to HTML",
		Long: `Render one shortcode to HTML, for example:

  procorepress render procore_project --id 123
  procorepress render procore_project_data --id 123 --attr field=start_date --attr label="Kickoff"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			reg, err := cliCtx.newRegistry()
			if err != nil {
				return err
			}

			attrs, err := parseAttrFlags(attrFlags)
			if err != nil {
				return err
			}
			if id != "" {
				attrs["id"] = id
			}
			if companyID != "" {
				attrs["company_id"] = companyID
			}

			name := args[0]
			if !strings.HasPrefix(name, "procore_") {
				name = "procore_" + name
			}
			html, ok := reg.Render(cmd.Context(), name, attrs)
			if !ok {
				return fmt.Errorf("unknown shortcode %q (available: %s)", args[0], strings.Join(reg.Names(), ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Project ID")
	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (overrides the default company)")
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "Shortcode attribute as key=value (repeatable)")

	return cmd
}

func newExpandCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expand [FILE]",
		Short: "Expand procore_* shortcodes in a content file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			reg, err := cliCtx.newRegistry()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open content: %w", err)
				}
				defer f.Close()
				in = f
			}

			content, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read content: %w", err)
			}

			_, err = io.WriteString(cmd.OutOrStdout(), reg.Expand(cmd.Context(), string(content)))
			return err
		},
	}
}

// parseAttrFlags turns ["k=v", ...] into attributes
func parseAttrFlags(flags []string) (render.Attrs, error) {
	attrs := render.Attrs{}
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --attr %q, expected key=value", f)
		}
		attrs[key] = value
	}
	return attrs, nil
}
