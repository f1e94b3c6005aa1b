package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/workplate/internal/repositories"
	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/services"
	"github.com/desertthunder/workplate/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	db          *sql.DB
	settings    *repositories.SettingsRepository
	listener    *server.Listener
	openBrowser shared.BrowserOpener
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Settings    *repositories.SettingsRepository
	Listener    *server.Listener
	OpenBrowser shared.BrowserOpener
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Listener == nil {
		opts.Listener = server.NewListener(server.Options{Logger: opts.Logger})
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		settings:    opts.Settings,
		listener:    opts.Listener,
		openBrowser: opts.OpenBrowser,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

// SetLogger replaces the logger, e.g. to keep log lines out of the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.listener = server.NewListener(server.Options{Logger: logger})
}

// Close releases the database opened by [Runner.Settings], if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Settings returns the settings repository, opening and migrating the database on first use.
func (r *Runner) Settings() (*repositories.SettingsRepository, error) {
	if r.settings != nil {
		return r.settings, nil
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, err
	}

	r.db = db
	r.settings = repositories.NewSettingsRepository(db)
	return r.settings, nil
}

func (r *Runner) calendarAuth() (*services.CalendarAuth, error) {
	settings, err := r.Settings()
	if err != nil {
		return nil, err
	}

	return services.NewCalendarAuth(services.CalendarAuthOpts{
		Config:      r.config,
		Settings:    settings,
		Listener:    r.listener,
		OpenBrowser: r.openBrowser,
		HTTPClient:  r.httpClient,
		Logger:      r.logger,
	}), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, calendarCommand, settingsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
