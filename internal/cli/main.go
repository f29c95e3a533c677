package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/takeclean/internal/config"
	"github.com/forPelevin/takeclean/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "takeclean",
		Short:         "Cut retakes, fillers and dead air from a spoken recording",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default: $TAKECLEAN_CONFIG, ./takeclean.toml, ~/.config/takeclean/config.toml)")
	root.PersistentFlags().Int("aggr", config.DefaultAggressiveness, "Aggressiveness 0..100")
	root.PersistentFlags().String("log-format", "", "Log format: auto, console or json")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(), newPlanCmd(), newSegmentCmd(), newConfigCmd())
	return root
}

// settings is the resolved file configuration plus flag overrides.
type settings struct {
	file   config.File
	core   config.Config
	logger *slog.Logger
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	path, _ := cmd.Flags().GetString("config")
	file, resolved, exists, err := config.Load(path)
	if err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}

	if f := cmd.Flags().Lookup("aggr"); f != nil && f.Changed {
		file.Aggressiveness, _ = cmd.Flags().GetInt("aggr")
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		file.Logging.Format = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		file.Logging.Level = v
	}

	core, err := file.Core()
	if err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  file.Logging.Level,
		Format: file.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return settings{}, fmt.Errorf("config: %w", err)
	}
	logger.Debug("config resolved", "path", resolved, "exists", exists, "aggressiveness", file.Aggressiveness)
	return settings{file: file, core: core, logger: logger}, nil
}
