package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/inspectrules/internal/config"
	"github.com/TimurManjosov/inspectrules/internal/engine"
	"github.com/TimurManjosov/inspectrules/internal/logging"
)

// globals holds flags shared by every command plus the state built from
// them before a command runs.
type globals struct {
	format   string
	logLevel string
	quiet    bool

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "inspectrules",
		Short: "Evaluate inspection rule conditions against machine facts",
		Long: `inspectrules evaluates the conditions of bare-metal inspection rules
against an inventory collected from a machine and optional plugin data.

Configuration is read from the environment and an optional .env file
(LOG_LEVEL, LOG_FORMAT, INVERSION_MARKER, ARG_TEMPLATES, METRICS_ENABLED).

Examples:
  inspectrules operators
  inspectrules validate -c conditions.yaml
  inspectrules eval -c conditions.yaml -i inventory.json
  inspectrules eval -c conditions.yaml -i inventory.json -p plugin.json --templates --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&g.quiet, "quiet", false, "Suppress output")

	rootCmd.AddCommand(
		newEvalCmd(g),
		newOperatorsCmd(g),
		newValidateCmd(g),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	g.cfg = cfg
	g.logger = logger.With().Str("app_env", cfg.AppEnv).Logger()
	return nil
}

// evaluatorOptions returns the options every command shares.
func (g *globals) evaluatorOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(g.logger),
		engine.WithTokenParser(engine.PrefixTokenParser{Marker: g.cfg.InversionMarker}),
	}
}
