package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/procorepress/internal/assets"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [DIR]",
		Short: "Create the asset layout and install the default stylesheet",
		Long: `Create assets/css under DIR (default the current directory) and install
procore-integration.css there. An existing stylesheet is left untouched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			written, err := assets.EnsureLayout(root)
			if err != nil {
				return err
			}

			path := assets.StylesheetPath(root)
			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Stylesheet already present at %s\n", path)
			}
			return nil
		},
	}
}
