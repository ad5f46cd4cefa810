package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formpipe/internal/server"
	"github.com/goliatone/go-formpipe/pkg/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:           "formpipe-server",
		Short:         "Serve the registration and catalog forms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file, ignored when missing")
	return cmd
}

func run(parent context.Context, opts config.Options) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client, err := server.NewTransport(cfg.API, logger.Named("transport"))
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, client, logger)
	if err != nil {
		return err
	}
	logger.Info("starting formpipe server",
		zap.String("api", cfg.API.BaseURL),
		zap.String("addr", cfg.Server.Addr),
	)
	return srv.Run(ctx)
}
