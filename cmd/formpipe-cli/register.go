package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	formpipe "github.com/goliatone/go-formpipe"
	"github.com/goliatone/go-formpipe/components/registration"
	"github.com/goliatone/go-formpipe/internal/server"
	"github.com/goliatone/go-formpipe/pkg/config"
	"github.com/goliatone/go-formpipe/pkg/renderers/tui"
	"github.com/goliatone/go-formpipe/pkg/session"
	"github.com/goliatone/go-formpipe/pkg/submission"
)

func registerCmd() *cobra.Command {
	var (
		opts     config.Options
		token    string
		attempts int
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user and company interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			req, err := registration.Request(cfg.Submission.Redirect)
			if err != nil {
				return err
			}
			coordinator, err := submission.NewCoordinator(client.With(session.Bearer(token)), req,
				submission.WithSecretLength(cfg.Submission.SecretLength),
				submission.WithLogger(logger.Named("submission")),
				submission.WithObserver(submission.LogObserver{Logger: logger.Named("submission")}),
			)
			if err != nil {
				return err
			}

			def, err := registration.Definition()
			if err != nil {
				return err
			}
			sess, err := tui.NewSession(formpipe.New(def, coordinator),
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
				tui.WithLogger(logger.Named("tui")),
				tui.WithMaxAttempts(attempts),
				tui.WithConfirm(!yes),
			)
			if err != nil {
				return err
			}
			outcome, err := sess.Run(cmd.Context())
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing was submitted.")
				return nil
			}
			if err != nil {
				return err
			}
			if _, ok := outcome.(submission.Success); !ok {
				logger.Warn("registration did not complete", zap.String("outcome", fmt.Sprintf("%T", outcome)))
				return errors.New("registration did not complete")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.File, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file, ignored when missing")
	cmd.Flags().StringVar(&token, "token", "", "bearer token sent to the backend")
	cmd.Flags().IntVar(&attempts, "attempts", 3, "prompts per field before giving up")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "submit without asking for confirmation")
	return cmd
}
