package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/pixgrid/internal/config"
)

var initConfig bool

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration pixgrid would run with, after applying the
config file, the .env file and the environment. The API key is masked.
With --init a commented config file is written to the --config path.`,
		Args: cobra.NoArgs,
		RunE: runConfig,
	}
	cmd.Flags().BoolVar(&initConfig, "init", false, "Write a config template to the --config path")
	return cmd
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if initConfig {
		if err := config.SaveTemplate(configPath); err != nil {
			return fmt.Errorf("failed to write config template: %w", err)
		}
		fmt.Fprintf(out, "Wrote config template to %s\n", configPath)
		return nil
	}

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintf(out, "# %s\n", configPath)
	fmt.Fprint(out, cfg.String())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "\n# warning: %v\n", err)
	}
	return nil
}
