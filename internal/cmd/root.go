package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/you/taskconsole/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskconsole",
	Short: "Task management admin console",
	Long: `taskconsole serves the task management admin console and lets you sign in
to the backend from the terminal.

The web console keeps one session per browser. The terminal commands share a
single session stored in cli.session_file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig honors --config, then CONSOLE_CONFIG, then the default path
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is $CONSOLE_CONFIG or "+config.DefaultConfigPath+")")
}
