package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimscore/internal/exitcode"
	"github.com/gyeh/claimscore/internal/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only web report",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.Addr, "addr", ":8000", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := openStore(ctx, log)
	defer st.Close()

	rs, err := report.New(st, log)
	if err != nil {
		log.Error().Err(err).Msg("load report templates")
		os.Exit(exitcode.UsageError)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      rs.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Msg("serving report")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			st.Close()
			os.Exit(exitcode.UsageError)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}
	return nil
}
