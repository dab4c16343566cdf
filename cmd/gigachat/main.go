package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gigachat/internal/infrastructure/config"
	"gigachat/internal/infrastructure/logging"
	"gigachat/internal/infrastructure/push"
	"gigachat/internal/infrastructure/rest"
	"gigachat/internal/pkg/sync/engine"
	"gigachat/internal/pkg/sync/port"
	"gigachat/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		apiURL   string
		token    string
		email    string
		password string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:           "gigachat",
		Short:         "Terminal client for GigaChat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.URL = apiURL
				cfg.Push.URL = config.PushURLFor(apiURL)
			}
			if token != "" {
				cfg.API.Token = token
			}
			if email != "" {
				cfg.API.Email = email
			}
			if password != "" {
				cfg.API.Password = password
			}

			// The TUI owns the terminal; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logging.Init(logging.Config{Level: cfg.Log.Level, Format: "json", Output: logOut})

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "GigaChat API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (skips signin)")
	cmd.Flags().StringVar(&email, "email", "", "email or phone number for signin")
	cmd.Flags().StringVar(&password, "password", "", "password for signin")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	api := rest.NewClient(cfg.API.URL,
		rest.WithToken(cfg.API.Token),
		rest.WithLogger(logging.Component("rest")),
	)
	if cfg.API.Token == "" {
		if cfg.API.Email == "" {
			return errors.New("either a token or email/password credentials are required")
		}
		if err := api.SignIn(ctx, cfg.API.Email, cfg.API.Password); err != nil {
			return err
		}
	}

	pushClient := push.NewClient(cfg.Push.URL,
		push.WithToken(api.Token()),
		push.WithReconnect(cfg.Push.ReconnectAttempts, cfg.Push.ReconnectDelay),
		push.WithLogger(logging.Component("push")),
	)

	eng := engine.New(api, pushClient,
		engine.WithPollInterval(cfg.Sync.PollInterval),
		engine.WithLogger(logging.Component("engine")),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		if errors.Is(err, port.ErrAuth) {
			return errors.New("session expired, sign in again")
		}
		return err
	}
	defer eng.Close()

	program := tea.NewProgram(tui.New(eng), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
