package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

var (
	askSession string
	askServer  string
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask one question and print the answer",
	Long: `Answers a single question. Without --server the index is built in
process from the configured document; with --server the question is sent to
a running docqa server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for follow-up questions")
	askCmd.Flags().StringVar(&askServer, "server", "", "base URL of a running docqa server")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	ctx := cmd.Context()
	svc, closeFn, err := connect(ctx, askServer, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := svc.Answer(ctx, entities.ChatRequest{
		Message:    strings.Join(args, " "),
		SessionID:  askSession,
		HasSession: askSession != "",
	})
	if err != nil {
		return err
	}
	cmd.Println(resp.Response)
	return nil
}
