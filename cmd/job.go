package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/job"
	"github.com/stefancrain/GeoApi/internal/pipeline"
	districtsvc "github.com/stefancrain/GeoApi/internal/service/district"
)

var (
	jobUSPSValidate bool
	jobStrategy     string
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run bulk address file jobs",
}

var jobRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Resolve districts for every address in a delimited file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open address file %s", args[0])
		}
		defer f.Close()

		addrs, err := job.ParseAddressFile(f)
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			return eris.New("address file has no records")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close(context.Background())

		store := job.NewStore(env.pool)
		j, err := store.Create(cmd.Context(), filepath.Base(args[0]), len(addrs))
		if err != nil {
			return err
		}
		zap.L().Info("job created",
			zap.String("id", j.ID.String()), zap.Int("records", j.RecordCount))

		strategy := jobStrategy
		if strategy == "" {
			strategy = cfg.District.StrategySingle
		}
		req := pipeline.Request{
			USPSValidate: jobUSPSValidate,
			Strategy:     districtsvc.ParseStrategy(strategy),
		}
		processor := job.NewProcessor(store, env.pipe)
		return processor.Run(cmd.Context(), j.ID, addrs, req)
	},
}

func init() {
	jobRunCmd.Flags().BoolVar(&jobUSPSValidate, "usps-validate", false, "correct addresses through USPS before geocoding")
	jobRunCmd.Flags().StringVar(&jobStrategy, "strategy", "", "district strategy (default from config)")
	jobCmd.AddCommand(jobRunCmd)
	rootCmd.AddCommand(jobCmd)
}
