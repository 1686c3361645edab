package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string

	// cfg and logger are initialized once before any subcommand runs.
	cfg    *Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "labctl",
	Short: "Assemble a home-lab Docker Compose deployment from a service catalog",
	Long: `labctl loads a directory of service templates, resolves the dependency
closure of the services you enable, validates their configuration fields,
and synthesizes a single docker-compose.yml plus its environment file.`,
	Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return configError{err}
		}
		logger = SetupLogger(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(buildCmd, validateCmd, catalogCmd)
}

// configError marks failures that should exit with the config error code.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			return ExitConfigError
		}
		return ExitBuildError
	}
	return ExitSuccess
}
