package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docqa-go/internal/tui"
)

var chatServer string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal chat",
	Long: `Opens a terminal chat that keeps one session for its lifetime, so
each question can follow up on the previous one. Logs are discarded while
the chat owns the terminal.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "base URL of a running docqa server")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, io.Discard)

	svc, closeFn, err := connect(cmd.Context(), chatServer, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	title := "docqa"
	if cfg.Document.URL != "" && chatServer == "" {
		title += " · " + cfg.Document.URL
	}
	if chatServer != "" {
		title += " · " + chatServer
	}

	p := tea.NewProgram(tui.New(svc, title, 0), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
