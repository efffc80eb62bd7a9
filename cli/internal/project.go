package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/procorepress/internal/pkg/textutil"
	"github.com/devilmonastery/procorepress/internal/procore"
)

// projectFlags are shared by the project subcommands
type projectFlags struct {
	companyID string
	json      bool
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.companyID, "company", "", "Company ID (overrides the default company)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the raw API response as JSON")
}

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Inspect Procore projects",
	}

	cmd.AddCommand(newProjectShowCommand())
	cmd.AddCommand(newProjectListCommand())
	cmd.AddCommand(newProjectTeamCommand())
	cmd.AddCommand(newProjectDrawingsCommand())
	cmd.AddCommand(newProjectSpecsCommand())
	cmd.AddCommand(newProjectImageCommand())

	return cmd
}

func newProjectShowCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "show PROJECT_ID",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			project, err := cliCtx.Client.GetProject(cmd.Context(), args[0], flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), project)
			}
			printMarkdown(cmd.OutOrStdout(), cliCtx.Contexts, projectMarkdown(project))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectListCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects for the company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			projects, err := cliCtx.Client.GetProjects(cmd.Context(), flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), projects)
			}
			printMarkdown(cmd.OutOrStdout(), cliCtx.Contexts, tableMarkdown("Projects",
				[]string{"id", "name", "city", "active"}, projects, "No projects found."))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectTeamCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "team PROJECT_ID",
		Short: "List a project's team members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			team, err := cliCtx.Client.GetProjectTeam(cmd.Context(), args[0], flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), team)
			}
			printMarkdown(cmd.OutOrStdout(), cliCtx.Contexts, tableMarkdown("Project Team",
				[]string{"name", "email", "role"}, team, "No team members found for this project."))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectDrawingsCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "drawings PROJECT_ID",
		Short: "List a project's drawing areas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			drawings, err := cliCtx.Client.GetProjectDrawings(cmd.Context(), args[0], flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), drawings)
			}
			printMarkdown(cmd.OutOrStdout(), cliCtx.Contexts, tableMarkdown("Project Drawings",
				[]string{"name", "description"}, drawings, "No drawings found for this project."))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectSpecsCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:     "specs PROJECT_ID",
		Aliases: []string{"specifications"},
		Short:   "List a project's specification sections",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			specs, err := cliCtx.Client.GetProjectSpecifications(cmd.Context(), args[0], flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), specs)
			}
			printMarkdown(cmd.OutOrStdout(), cliCtx.Contexts, tableMarkdown("Project Specifications",
				[]string{"number", "title", "description"}, specs, "No specifications found for this project."))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newProjectImageCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "image PROJECT_ID",
		Short: "Print the project's logo URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			url, err := cliCtx.Client.GetProjectImage(cmd.Context(), args[0], flags.companyID)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), map[string]string{"logo_url": url})
			}
			if url == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No featured image available for this project.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// projectMarkdown summarizes a project the way the procore_project shortcode does
func projectMarkdown(p procore.Object) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", valueOrNone(p.String("name")))

	status := "Inactive"
	if p.Bool("active") {
		status = "Active"
	}
	rows := [][2]string{
		{"Address", p.String("address")},
		{"City", p.String("city")},
		{"State", p.String("state_code")},
		{"Zip", p.String("zip")},
		{"Start Date", p.StringOr("start_date", "N/A")},
		{"Completion Date", p.StringOr("completion_date", "N/A")},
		{"Status", status},
	}
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], escapeCell(r[1]))
	}
	return b.String()
}

// tableMarkdown renders items as a markdown table with the given columns
func tableMarkdown(title string, columns []string, items []procore.Object, empty string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	if len(items) == 0 {
		b.WriteString(empty + "\n")
		return b.String()
	}

	headers := make([]string, len(columns))
	rule := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = textutil.HumanizeField(c)
		rule[i] = "---"
	}
	fmt.Fprintf(&b, "| %s |\n| %s |\n", strings.Join(headers, " | "), strings.Join(rule, " | "))

	for _, item := range items {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = escapeCell(textutil.Truncate(item.String(c), 60))
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	fmt.Fprintf(&b, "\n%d total\n", len(items))
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
