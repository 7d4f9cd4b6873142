package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg *Config

var rootCmd = &cobra.Command{
	Use:          "cropadvisor",
	Short:        "Crop recommendation API for farmers",
	Long:         "Serves crop, fertilizer and irrigation advice from a remote model with a rule-table fallback.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := initLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
