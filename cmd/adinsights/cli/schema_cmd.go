package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema registry",
		Long: `Print the selectable levels, date presets, time increments, breakdowns,
fields and conversion goals, the default selection and the column types.

The output is a valid schema file: save it, edit it and point schema.file at
it to override the built-in registry.`,
		Example: `  adinsights schema > schema.yaml
  adinsights schema --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}
			reg := p.svc.Registry()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reg.File())
			}

			b, err := reg.Dump()
			if err != nil {
				return fmt.Errorf("dump schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the registry as JSON")

	return cmd
}
