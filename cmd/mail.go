package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/storefront/internal/mailer"
	"github.com/spf13/cobra"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Mail delivery commands",
}

var mailTestCmd = &cobra.Command{
	Use:   "test [recipient]",
	Short: "Send a sample reset email through the configured relay",
	Long:  `Render the password reset email with a dummy token and push it through the mail worker pool`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := setupLogger(cfg)

		link, err := mailer.ResetLink(cfg.Frontend.BaseURL, "test-token")
		if err != nil {
			return err
		}
		body, err := mailer.RenderResetEmail(link, cfg.Mail.FromName)
		if err != nil {
			return err
		}

		result := make(chan string, 1)
		dispatcher := mailer.NewDispatcher(newMailSender(cfg.Mail, lg), mailer.DispatcherConfig{
			Workers:     1,
			QueueSize:   1,
			SendTimeout: cfg.Mail.SendTimeout,
		}, lg)
		dispatcher.OnResult(func(r string) { result <- r })

		ctx := context.Background()
		if err := dispatcher.Send(ctx, mailer.Message{To: args[0], Subject: mailer.ResetSubject, HTMLBody: body}); err != nil {
			return fmt.Errorf("failed to queue message: %w", err)
		}

		var outcome string
		select {
		case outcome = <-result:
		case <-time.After(cfg.Mail.SendTimeout + 5*time.Second):
			outcome = "timeout"
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = dispatcher.Shutdown(shutdownCtx)

		lg.Info("mail test finished", "to", args[0], "result", outcome)
		if outcome != mailer.ResultSent {
			return fmt.Errorf("mail test %s", outcome)
		}
		return nil
	},
}

func init() {
	mailCmd.AddCommand(mailTestCmd)
}
