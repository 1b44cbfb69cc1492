package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/shapefile"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Manage the district boundary map cache",
}

var mapsCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Fetch and decode every cacheable district boundary",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.Connect(cmd.Context(), geoURL())
		if err != nil {
			return err
		}
		defer pool.Close()

		dao := shapefile.NewDAO(pool)
		if err := dao.LoadMaps(cmd.Context()); err != nil {
			return err
		}
		zap.L().Info("district maps cached")
		return nil
	},
}

func init() {
	mapsCmd.AddCommand(mapsCacheCmd)
	rootCmd.AddCommand(mapsCmd)
}
