package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/rulesynth/internal/core/api"
	"github.com/solatis/rulesynth/internal/core/auth"
	"github.com/solatis/rulesynth/internal/core/config"
	"github.com/solatis/rulesynth/internal/core/db"
	"github.com/solatis/rulesynth/internal/core/server"
	"github.com/solatis/rulesynth/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC exact-match lookup service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := logger.WithContext(context.Background(), log)

	database, queries, err := openQueries()
	if err != nil {
		return err
	}
	defer database.Close()

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, st := range statuses {
		if !st.Applied {
			return fmt.Errorf("migration %s not applied - run 'rulesynth migrate up' first", st.ID)
		}
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set RS_HMAC_SECRET environment variable)")
	}
	authenticator := auth.NewAuthenticator(secrets, queries)

	service, err := api.NewExactMatchService(db.NewExampleStore(queries), cfg.Exact)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	if _, _, err := service.ReloadIndex(ctx); err != nil {
		return fmt.Errorf("failed to load exact-match index: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting rulesynth lookup service", "host", cfg.Server.Host, "port", cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if _, _, err := service.ReloadIndex(ctx); err != nil {
					log.Error("reload failed", "error", err)
				}
				continue
			}
			log.Info("shutting down gracefully", "signal", sig.String())
			sctx, cancel := context.WithTimeout(ctx, 35*time.Second)
			err := grpcServer.Shutdown(sctx)
			cancel()
			return err
		}
	}
}
