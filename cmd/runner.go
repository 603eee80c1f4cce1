package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/grantshandy/starify/internal/credentials"
	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      credentials.Store
	provider   models.Provider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Store and Provider are normally built from the config; set them to substitute test doubles.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      credentials.Store
	Provider   models.Provider
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
		store:      opts.Store,
		provider:   opts.Provider,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, configCommand, credentialsCommand, artistsCommand, dbCommand, keygenCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the file named by --config, falling back to the embedded defaults when it does not exist.
//
// Environment variables override both.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	return ctx, r.loadConfig(cmd.String("config"))
}

func (r *Runner) loadConfig(path string) error {
	r.configPath = path

	config, err := shared.LoadConfig(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
		if err := shared.ApplyEnv(config); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return err
	}
	r.config = config
	return nil
}

// openStore returns the injected store or opens the configured one. The returned func releases it.
func (r *Runner) openStore(ctx context.Context) (credentials.Store, func(), error) {
	if r.store != nil {
		return r.store, func() {}, nil
	}

	store, err := credentials.Open(ctx, r.config.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return store, func() {
		if err := store.Close(); err != nil {
			r.logger.Warn("failed to close credential store", "err", err)
		}
	}, nil
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
	r.writePlain("%s\n", styles.title.Render(title))
}
