package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlchain/internal/chain"
)

// newRenderCommand creates the render command.
func newRenderCommand() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "render CHAIN_FILE",
		Short: "Render a chain definition to SQL",
		Long: `Render a YAML chain definition to the SQL it would execute.

The render method controls the shape of the output: a plain SELECT over
the chain's CTEs, a CREATE statement for a table or view, or one view
per step.`,
		Example: `  sqlchain render chain.yaml
  sqlchain render chain.yaml --method view`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)

			m, err := chain.CheckRenderMethod(method)
			if err != nil {
				return err
			}

			def, err := LoadDefinition(args[0])
			if err != nil {
				return err
			}

			s, err := openSession(ctx, cfg, getLogger(ctx))
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := def.Build(ctx, s)
			if err != nil {
				return err
			}

			sqlText, err := c.SQL(ctx, m)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), sqlText)
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "select", "Render method: select, table, view, views")
	return cmd
}
