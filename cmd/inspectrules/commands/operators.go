package commands

import (
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/inspectrules/internal/cli"
	"github.com/TimurManjosov/inspectrules/internal/engine"
)

func newOperatorsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List registered condition operators",
		Long: `List every registered operator with its arguments. Optional arguments
are shown in brackets. Any operator may be inverted by prefixing it with
the inversion marker, "!" by default.

Examples:
  inspectrules operators
  inspectrules operators --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := engine.DefaultRegistry()

			var ops []cli.OperatorInfo
			for _, name := range registry.Names() {
				op, err := registry.Lookup(name)
				if err != nil {
					return err
				}
				ops = append(ops, cli.OperatorInfo{Name: name, Args: op.Args().String()})
			}

			if g.quiet {
				return nil
			}
			return cli.PrintOperators(cmd.OutOrStdout(), ops, cli.OutputFormat(g.format))
		},
	}
}
