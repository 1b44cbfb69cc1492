package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/server"
	districtsvc "github.com/stefancrain/GeoApi/internal/service/district"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the geocoding and district assignment API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close(context.Background())

		// Warm the boundary map cache in the background; /api/map serves
		// 404s until it finishes.
		go func() {
			if err := env.shapes.LoadMaps(ctx); err != nil {
				zap.L().Warn("map cache warmup failed", zap.Error(err))
			}
		}()

		// Strategies are read through the config store per request so a
		// config file edit takes effect without a restart.
		srv := server.New(env.pipe, env.addrSvc, env.geoSvc,
			server.WithMaps(env.shapes),
			server.WithStrategySource(func() (districtsvc.Strategy, districtsvc.Strategy) {
				c := cfgStore.Current()
				return districtsvc.ParseStrategy(c.District.StrategySingle),
					districtsvc.ParseStrategy(c.District.StrategyBluebird)
			}),
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
