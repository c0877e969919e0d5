package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/cadence/internal/app"
	"github.com/colonyops/cadence/internal/core/config"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Token      string
	Yes        bool

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	app *app.App
}

// App opens the application on first use. Commands that only need the
// config (serve, token, config validate) never open it.
func (f *Flags) App(ctx context.Context) (*app.App, error) {
	if f.app != nil {
		return f.app, nil
	}
	if f.Config == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	a, err := app.New(ctx, f.Config, app.Options{
		Token:     f.Token,
		Confirmer: &TerminalConfirmer{Yes: f.Yes, In: os.Stdin},
		Notifier:  newToastNotifier(os.Stderr),
		Log:       log.Logger,
	})
	if err != nil {
		return nil, err
	}
	f.app = a
	return a, nil
}

// Close releases the application if it was opened.
func (f *Flags) Close() error {
	if f.app == nil {
		return nil
	}
	err := f.app.Close()
	f.app = nil
	return err
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cadence", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "cadence")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/cadence/cadence.log
// On Linux: $XDG_STATE_HOME/cadence/cadence.log (defaults to ~/.local/state/cadence/cadence.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "cadence", "cadence.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "cadence", "cadence.log")
	}

	return filepath.Join(home, ".local", "state", "cadence", "cadence.log")
}
