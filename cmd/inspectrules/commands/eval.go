package commands

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/inspectrules/internal/cli"
	"github.com/TimurManjosov/inspectrules/internal/engine"
	"github.com/TimurManjosov/inspectrules/internal/telemetry"
)

func newEvalCmd(g *globals) *cobra.Command {
	var (
		conditionsPath string
		inventoryPath  string
		pluginPath     string
		templates      bool
		requireAll     bool
		metrics        bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a condition document against machine facts",
		Long: `Evaluate every condition in a document against an inventory and optional
plugin data, and print one result per condition.

With --all the document is checked as a whole: conditions are evaluated in
order, stopping at the first one that does not hold, and the command fails
unless every condition holds.

The command exits non-zero when any condition fails to evaluate.

Examples:
  inspectrules eval -c conditions.yaml -i inventory.json
  inspectrules eval -c conditions.yaml -i inventory.json -p plugin.json --templates
  inspectrules eval -c conditions.yaml -i inventory.yaml --all --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := cli.LoadDocument(conditionsPath)
			if err != nil {
				return err
			}
			inventory, err := cli.LoadFacts(inventoryPath)
			if err != nil {
				return err
			}
			pluginData, err := cli.LoadFacts(pluginPath)
			if err != nil {
				return err
			}

			opts := g.evaluatorOptions()
			if templates || g.cfg.ArgTemplates {
				opts = append(opts, engine.WithArgResolver(engine.TemplateResolver{}))
			}

			var reg *prometheus.Registry
			if metrics || g.cfg.MetricsEnabled {
				reg = prometheus.NewRegistry()
				opts = append(opts, engine.WithObserver(telemetry.Init(reg)))
			}

			ev := engine.New(opts...)

			var results []cli.Result
			failed := 0
			if requireAll {
				ok, err := ev.CheckAll(nil, doc.Conditions, inventory, pluginData)
				r := cli.Result{ID: "all", Op: "check-all", Result: ok}
				if err != nil {
					r.Error = err.Error()
					failed++
				}
				results = append(results, r)
			} else {
				for _, cond := range doc.Conditions {
					ok, err := ev.Evaluate(nil, cond, inventory, pluginData)
					r := cli.Result{ID: cond.ID, Op: cond.Op, Result: ok, Inverted: cond.IsInverted(g.cfg.InversionMarker)}
					if err != nil {
						r.Error = err.Error()
						failed++
						g.logger.Warn().Err(err).Str("condition", cond.ID).Msg("condition failed to evaluate")
					}
					results = append(results, r)
				}
			}

			if !g.quiet {
				if err := cli.PrintResults(cmd.OutOrStdout(), results, cli.OutputFormat(g.format)); err != nil {
					return err
				}
			}

			if reg != nil {
				if err := dumpMetrics(cmd.ErrOrStderr(), reg); err != nil {
					return err
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d condition(s) failed to evaluate", failed, len(results))
			}
			if requireAll && !results[0].Result {
				return fmt.Errorf("conditions did not hold")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&conditionsPath, "conditions", "c", "", "Condition document (YAML or JSON)")
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "Inventory file (YAML or JSON)")
	cmd.Flags().StringVarP(&pluginPath, "plugin-data", "p", "", "Plugin data file (YAML or JSON)")
	cmd.Flags().BoolVar(&templates, "templates", false, "Resolve {inventory.*} and {plugin_data.*} placeholders in args")
	cmd.Flags().BoolVar(&requireAll, "all", false, "Require every condition to hold")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print check metrics to stderr after evaluation")
	_ = cmd.MarkFlagRequired("conditions")

	return cmd
}

func dumpMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
