package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinefeed/internal/auth"
	"github.com/desertthunder/cinefeed/internal/catalog"
	"github.com/desertthunder/cinefeed/internal/repositories"
	"github.com/desertthunder/cinefeed/internal/routes"
	"github.com/desertthunder/cinefeed/internal/services"
	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// API clients and the session store are built from the config on first use, so commands that
// never touch an API (setup) run without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	movies     services.MoviesService
	search     services.VideoSearchService
	identity   services.IdentityProvider
	federated  auth.FederatedSignIn
	sessions   auth.SessionStore
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are created from the config when a command needs them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Movies     services.MoviesService
	Search     services.VideoSearchService
	Identity   services.IdentityProvider
	Federated  auth.FederatedSignIn
	Sessions   auth.SessionStore
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
		movies:     opts.Movies,
		search:     opts.Search,
		identity:   opts.Identity,
		federated:  opts.Federated,
		sessions:   opts.Sessions,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, catalogCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database opened by the session store.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) moviesService() (services.MoviesService, error) {
	if r.movies != nil {
		return r.movies, nil
	}

	svc, err := services.NewTMDBService(r.config.Credentials.TMDB, r.config.Catalog.RequestsPerSecond, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.movies = svc
	return svc, nil
}

// searchService returns the trailer search fallback, or nil when YouTube is not configured.
func (r *Runner) searchService() services.VideoSearchService {
	if r.search != nil {
		return r.search
	}

	svc, err := services.NewYouTubeService(r.config.Credentials.YouTube, r.httpClient)
	if err != nil {
		r.logger.Debug("trailer search disabled", "error", err)
		return nil
	}
	r.search = svc
	return svc
}

func (r *Runner) identityProvider() (services.IdentityProvider, error) {
	if r.identity != nil {
		return r.identity, nil
	}

	svc, err := services.NewFirebaseService(r.config.Credentials.Firebase, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.identity = svc
	return svc, nil
}

// federatedSignIn returns the Google browser sign-in, or nil when no OAuth client is configured.
func (r *Runner) federatedSignIn(out io.Writer) auth.FederatedSignIn {
	if r.federated != nil {
		return r.federated
	}

	oauth, err := services.NewGoogleOAuth(r.config.Credentials.Google.Map())
	if err != nil {
		r.logger.Debug("google sign-in disabled", "error", err)
		return nil
	}
	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	return auth.NewBrowserFlow(oauth, addr, out, r.logger)
}

func (r *Runner) sessionStore() (auth.SessionStore, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	r.db = db
	r.sessions = repositories.NewSessionRepository(db)
	return r.sessions, nil
}

// newGateway wires the auth gateway; nav receives its navigations.
func (r *Runner) newGateway(nav routes.Navigator, out io.Writer) (*auth.Gateway, error) {
	provider, err := r.identityProvider()
	if err != nil {
		return nil, err
	}
	store, err := r.sessionStore()
	if err != nil {
		return nil, err
	}

	opts := auth.GatewayOpts{
		Provider:  provider,
		Store:     store,
		Navigator: nav,
		Logger:    r.logger,
	}
	if f := r.federatedSignIn(out); f != nil {
		opts.Federated = f
	}
	return auth.NewGateway(opts), nil
}

// newFeed creates a catalog feed showing filter.
func (r *Runner) newFeed(signer catalog.Signer, filter catalog.Category) (*catalog.Feed, error) {
	movies, err := r.moviesService()
	if err != nil {
		return nil, err
	}

	opts := catalog.FeedOpts{
		Movies:          movies,
		Auth:            signer,
		Filter:          filter,
		ScrollThreshold: r.config.Catalog.ScrollThreshold,
		Logger:          r.logger,
	}
	if search := r.searchService(); search != nil {
		opts.Search = search
	}
	return catalog.NewFeed(opts), nil
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
