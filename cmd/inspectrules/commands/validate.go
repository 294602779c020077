package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/inspectrules/internal/cli"
	"github.com/TimurManjosov/inspectrules/internal/engine"
	"github.com/TimurManjosov/inspectrules/internal/validation"
)

func newValidateCmd(g *globals) *cobra.Command {
	var conditionsPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a condition document without evaluating it",
		Long: `Validate the structure of every condition in a document: known operators,
inversion markers, loop strategies, argument names and
unique condition ids. Argument values
are not inspected and no facts are needed.

Examples:
  inspectrules validate -c conditions.yaml
  inspectrules validate -c conditions.json --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := cli.LoadDocument(conditionsPath)
			if err != nil {
				return err
			}

			ev := engine.New(g.evaluatorOptions()...)
			docResult := validation.ValidateDocument(doc.Conditions)
			if msg, ok := docResult.Errors["conditions"]; ok {
				return fmt.Errorf("%s: %s", conditionsPath, msg)
			}

			results := make([]cli.Result, 0, len(doc.Conditions))
			invalid := 0
			for i, cond := range doc.Conditions {
				r := cli.Result{ID: cond.ID, Op: cond.Op, Result: true, Inverted: cond.IsInverted(g.cfg.InversionMarker)}
				if msg, ok := docResult.Errors[validation.IDField(i)]; ok {
					r.Result = false
					r.Error = msg
				} else if err := ev.Validate(cond); err != nil {
					r.Result = false
					r.Error = err.Error()
				}
				if !r.Result {
					invalid++
				}
				results = append(results, r)
			}

			if !g.quiet {
				if err := cli.PrintValidation(cmd.OutOrStdout(), results, cli.OutputFormat(g.format)); err != nil {
					return err
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d condition(s) are invalid", invalid, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&conditionsPath, "conditions", "c", "", "Condition document (YAML or JSON)")
	_ = cmd.MarkFlagRequired("conditions")

	return cmd
}
