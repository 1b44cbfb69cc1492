package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/config"
)

var (
	cfgStore *config.Store
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "geoapi",
	Short: "Geocoding and district assignment service for New York State",
	Long:  "Resolves addresses to coordinates and political districts using PostGIS boundary data, Board of Elections street files, and external geocoders.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.NewStore()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfgStore = store
		cfg = store.Current()

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
