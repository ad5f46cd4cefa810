package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "formpipe-cli",
		Short:         "Validate form definitions and run forms from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(validateCmd(), passwordCmd(), registerCmd())
	return cmd
}
