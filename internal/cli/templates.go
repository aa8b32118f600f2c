package cli

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlchain/internal/catalog"
)

// newTemplatesCommand creates the templates command. Listing resolves the
// catalog for the target dialect without opening a connection.
func newTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the transform templates for the target dialect",
		Example: `  # Templates resolved for the configured target
  sqlchain templates

  # Templates for another dialect
  sqlchain templates --type postgres`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())

			var cat *catalog.Catalog
			var err error
			if cfg.TemplatesDir != "" {
				cat, err = catalog.Load(os.DirFS(cfg.TemplatesDir))
			} else {
				cat, err = catalog.Default()
			}
			if err != nil {
				return err
			}

			templates, err := cat.List(strings.ToLower(cfg.Target.Type))
			if err != nil {
				return err
			}

			w := table.NewWriter()
			w.SetOutputMirror(cmd.OutOrStdout())
			w.AppendHeader(table.Row{"NAME", "ARGUMENTS", "DESCRIPTION"})
			for _, tmpl := range templates {
				names := make([]string, len(tmpl.Arguments))
				for i, arg := range tmpl.Arguments {
					names[i] = arg.Name
				}
				w.AppendRow(table.Row{tmpl.Name, strings.Join(names, ", "), tmpl.Description})
			}
			w.Render()
			return nil
		},
	}
}
