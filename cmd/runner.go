package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitransfer/internal/repositories"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/desertthunder/spotitransfer/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Account role labels used by flags, config sections, and output.
const (
	roleSource = "source"
	roleDest   = "dest"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.LibraryService
	dest       services.LibraryService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.LibraryService
	Dest       services.LibraryService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		dest:       opts.Dest,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, fetchCommand, transferCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// accountFor returns the config section holding the given role's tokens.
func (r *Runner) accountFor(role string) (*shared.AccountConfig, error) {
	switch role {
	case roleSource:
		return &r.config.Accounts.Source, nil
	case roleDest:
		return &r.config.Accounts.Dest, nil
	default:
		return nil, fmt.Errorf("%w: account must be '%s' or '%s', got '%s'", shared.ErrInvalidFlag, roleSource, roleDest, role)
	}
}

// serviceFor returns the initialized service for the given role.
func (r *Runner) serviceFor(role string) (services.LibraryService, error) {
	switch role {
	case roleSource:
		if r.source == nil {
			return nil, fmt.Errorf("%w: source account not initialized, run 'spotitransfer auth login --account source'", shared.ErrServiceUnavailable)
		}
		return r.source, nil
	case roleDest:
		if r.dest == nil {
			return nil, fmt.Errorf("%w: destination account not initialized, run 'spotitransfer auth login --account dest'", shared.ErrServiceUnavailable)
		}
		return r.dest, nil
	default:
		return nil, fmt.Errorf("%w: invalid account role '%s'", shared.ErrInvalidArgument, role)
	}
}

// saveTokens stores a fresh token set for the given account role and
// persists the config when a path is known.
func (r *Runner) saveTokens(role string, token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	account, err := r.accountFor(role)
	if err != nil {
		return err
	}

	if err := account.Update(token); err != nil {
		return fmt.Errorf("failed to update %s account configuration: %w", role, err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// openDatabase opens the configured sqlite database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// engine builds the transfer engine over the runner's two accounts.
func (r *Runner) engine(cache tasks.LibraryCacher) *tasks.TransferEngine {
	return tasks.NewTransferEngine(r.source, r.dest, cache, r.logger)
}

// libraryRepo opens the database and wraps it in a library repository.
// The returned closer must be deferred by the caller.
func (r *Runner) libraryRepo() (*repositories.LibraryRepository, func(), error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewLibraryRepository(db), func() { db.Close() }, nil
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
