package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "foodcost",
	Short: "Ingredient resolution and unit conversion engine",
	Long:  "Resolves free-text vendor item names against a location's catalog and converts purchase pack quantities into recipe costing units.",
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
