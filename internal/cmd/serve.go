package cmd

import (
	"github.com/spf13/cobra"

	"github.com/you/taskconsole/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web console",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}
		return app.Run(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides app.port)")
	rootCmd.AddCommand(serveCmd)
}
