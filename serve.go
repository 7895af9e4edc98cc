package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jalad-shrimali/cdr-insight/celldb"
	"github.com/jalad-shrimali/cdr-insight/handlers"
	"github.com/jalad-shrimali/cdr-insight/logger"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			cells, err := openCells(cfg.Analysis.CellDB)
			if err != nil {
				return err
			}
			if cells != nil {
				defer cells.Close()
			}

			h := handlers.New(handlers.Options{
				MaxUploadBytes:  cfg.Server.MaxUploadBytes,
				UploadRate:      cfg.Server.UploadRate,
				UploadBurst:     cfg.Server.UploadBurst,
				TopN:            cfg.Analysis.TopN,
				MinInteractions: cfg.Analysis.MinInteractions,
				Cells:           cells,
			})
			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      h.Routes(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logger.Info("server started", slog.String("addr", srv.Addr))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// openCells opens the optional tower database; an empty path disables lookups.
func openCells(path string) (*celldb.DB, error) {
	if path == "" {
		return nil, nil
	}
	return celldb.Open(path)
}
