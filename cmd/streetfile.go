package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/streetfile"
)

var streetfileCmd = &cobra.Command{
	Use:   "streetfile",
	Short: "Manage Board of Elections street files",
}

var streetfileLoadCmd = &cobra.Command{
	Use:   "load <tsv>",
	Short: "Load a tab-separated street file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open street file %s", args[0])
		}
		defer f.Close()

		pool, err := db.Connect(cmd.Context(), geoURL())
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := streetfile.Load(cmd.Context(), pool, f)
		if err != nil {
			return err
		}
		zap.L().Info("street file loaded", zap.String("file", args[0]), zap.Int64("rows", n))
		return nil
	},
}

func init() {
	streetfileCmd.AddCommand(streetfileLoadCmd)
	rootCmd.AddCommand(streetfileCmd)
}
