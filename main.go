package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-insight/config"
	"github.com/jalad-shrimali/cdr-insight/logger"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdr-insight",
		Short: "Call-detail-record analytics",
		Long: `cdr-insight ingests Airtel and Jio CDR exports, normalizes them into one
canonical table and reports temporal, contact-network, location and device
patterns, over HTTP or from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			logger.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	rootCmd.AddCommand(serveCmd(), analyzeCmd(), commonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
