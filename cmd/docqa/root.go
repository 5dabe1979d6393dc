package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docqa-go/internal/app"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	server "github.com/0xcro3dile/docqa-go/internal/infrastructure/http"
	"github.com/0xcro3dile/docqa-go/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over a single document",
	Long: `docqa fetches one document, splits it into fixed-size fragments and
embeds them once. Each question is answered from the nearest fragment, with
one step of conversation history per session.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// answerer is what ask and chat need, in process or remote.
type answerer interface {
	Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error)
}

// loadConfig reads the config and applies the --log-level flag.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newLogger writes to w, or stderr when w is nil.
func newLogger(cfg *config.AppConfig, w io.Writer) *slog.Logger {
	if w == nil {
		return logging.New(cfg.Log.Level, cfg.Log.Format)
	}
	return logging.NewWithWriter(w, cfg.Log.Level, cfg.Log.Format)
}

// connect returns a remote client when serverURL is set, otherwise it builds
// the application in process. The returned func releases resources.
func connect(ctx context.Context, serverURL string, cfg *config.AppConfig, logger *slog.Logger) (answerer, func(), error) {
	if serverURL != "" {
		return server.NewClient(serverURL, 0), func() {}, nil
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, func() { a.Close() }, nil
}
