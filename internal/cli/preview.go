package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPreviewCommand creates the preview command.
func newPreviewCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview CHAIN_FILE",
		Short: "Run a chain definition and print a capped sample of rows",
		Example: `  sqlchain preview chain.yaml
  sqlchain preview chain.yaml --limit 50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)

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

			result, err := c.Preview(ctx, limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of rows to print")
	return cmd
}
