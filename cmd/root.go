package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mazirhxxx/listlab/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listlab",
	Short: "Lead list quality engine",
	Long:  "Analyzes lead lists for quality issues, applies remediation steps, and verifies leads against ideal-customer avatars via an external classifier.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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
