package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/siva673/loop-agent/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP agent",
	Long: `Serves /login, /callback, /play, /status, /devices and /sessions.

Pending stops live in memory; restarting the agent drops them.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (default from server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := newStack(logger)
	if err != nil {
		return err
	}
	defer st.stops.Shutdown()

	srv := server.New(server.Deps{
		Player:     st.service,
		Sessions:   st.stops,
		Authorizer: st.oauth,
		Tokens:     st.client,
	}, logger.Named("http"))

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !st.storage.Exists() {
		logger.Warn("no spotify token stored; visit /login to authorize",
			zap.String("token_path", st.storage.Path()))
	}

	err = srv.Run(ctx, addr,
		time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second,
		time.Duration(cfg.Server.WriteTimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shut down", zap.Int("pending_stops", len(st.stops.Pending())))
	return nil
}
