package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/osmoflow/osmoflow/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a case file",
		Long: `Parse and validate a case file without building anything.

This command checks:
  - CUE or YAML syntax validity
  - Field constraints (NF variant, chemistry basis, split fraction range)
  - Unknown fields in YAML cases`,
		Example: `  # Validate a CUE case
  osmoflow validate seawater.cue

  # Validate via the global flag
  osmoflow validate --case seawater.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := casePath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no case file given")
			}

			c, err := config.NewParser().Load(path)
			if err != nil {
				return err
			}

			opts := c.PretreatmentOptions()
			log.Info().
				Str("case", c.Name).
				Bool("bypass", opts.HasBypass).
				Str("nf_type", string(opts.NFType)).
				Str("nf_base", string(opts.NFBase)).
				Msg("Case file is valid")
			return nil
		},
	}

	return cmd
}
