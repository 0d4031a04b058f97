package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"scout-sync-go/pkg/cli/client"
	"scout-sync-go/pkg/cli/tui"
	"scout-sync-go/pkg/config"
	"scout-sync-go/pkg/tasks"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type App struct {
	cfg    *config.Config
	client *client.Client
	log    *zap.Logger
	out    io.Writer
}

func NewApp(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		cfg: cfg,
		log: log,
		out: &lockedWriter{w: os.Stdout},
	}
}

// getClient returns the HTTP client, creating it if necessary
func (a *App) getClient() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	if a.cfg.CLI.BaseURL == "" {
		return nil, fmt.Errorf("API base URL not configured")
	}
	if a.cfg.CLI.APIKey == "" {
		return nil, fmt.Errorf("API key not configured (use --register or --config-set cli.api_key=...)")
	}

	a.client = client.NewClient(a.cfg.CLI.BaseURL, a.cfg.CLI.APIKey)
	return a.client, nil
}

// getClientForRegistration returns an HTTP client without API key (for registration)
func (a *App) getClientForRegistration() (*client.Client, error) {
	if a.cfg.CLI.BaseURL == "" {
		return nil, fmt.Errorf("API base URL not configured")
	}
	return client.NewClient(a.cfg.CLI.BaseURL, ""), nil
}

// newController builds a task controller using the configured poll settings
func (a *App) newController(api tasks.StatusClient, n tasks.Notifier) *tasks.Controller {
	return tasks.New(api, tasks.Options{
		PollInterval:     a.cfg.PollInterval(),
		DisableAutoStart: !a.cfg.AutoStart(),
		Logger:           a.log.Named("tasks"),
		Notifier:         n,
	})
}

// Run starts the interactive TUI
func (a *App) Run() error {
	api, err := a.getClient()
	if err != nil {
		return err
	}

	notes := tui.NewNotificationFeed()
	ctrl := a.newController(api, notes)
	defer ctrl.Close()

	p := tea.NewProgram(tui.NewRootModel(ctrl, api, notes), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// lockedWriter serializes writes from notification callbacks and the main
// goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
