package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/shapeload"
)

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "Manage district boundary shapes",
}

var shapesLoadCmd = &cobra.Command{
	Use:   "load <districtType> <shapefile>",
	Short: "Load a census district shapefile into its boundary table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, ok := shapeload.SourceFor(args[0])
		if !ok {
			return eris.Errorf("no shapefile source for district type %q", args[0])
		}

		rows, err := shapeload.Parse(args[1], src)
		if err != nil {
			return err
		}

		pool, err := db.Connect(cmd.Context(), geoURL())
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := shapeload.Load(cmd.Context(), pool, src, rows)
		if err != nil {
			return err
		}
		zap.L().Info("shapes loaded",
			zap.String("type", string(src.Type)), zap.Int64("rows", n))
		return nil
	},
}

func init() {
	shapesCmd.AddCommand(shapesLoadCmd)
	rootCmd.AddCommand(shapesCmd)
}
