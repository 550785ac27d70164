package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/campushire/campushire/internal/cli/auth"
	"github.com/campushire/campushire/internal/cli/client"
	"github.com/campushire/campushire/internal/cli/config"
	"github.com/campushire/campushire/internal/cli/serverselect"
	"github.com/campushire/campushire/internal/session"
)

// storeProbeTimeout bounds each credential lookup when listing servers
const storeProbeTimeout = 2 * time.Second

// UserAgent is sent with every API request; the root command appends the version
var UserAgent = "campushire-cli/dev"

// sessionEnv is everything a command needs to act on the selected server
type sessionEnv struct {
	server  *config.Server
	client  *client.Client
	manager *session.Manager
	out     io.Writer
	in      io.Reader
	close   func()
}

// options lets tests replace the pieces newSessionEnv would otherwise build
// from campushire.json and the OS
type options struct {
	serverAlias string
	server      *config.Server
	store       auth.Store
	httpClient  *http.Client
	out         io.Writer
	in          io.Reader
}

// Option customises how a command builds its session
type Option func(*options)

// WithServerAlias picks a server by alias instead of the selected one
func WithServerAlias(alias string) Option {
	return func(o *options) {
		o.serverAlias = alias
	}
}

// WithServer skips config loading and uses server directly
func WithServer(server *config.Server) Option {
	return func(o *options) {
		o.server = server
	}
}

// WithStore replaces the configured credential store
func WithStore(store auth.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHTTPClient replaces the API client's transport
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithOutput redirects command output
func WithOutput(out io.Writer) Option {
	return func(o *options) {
		o.out = out
	}
}

// WithInput replaces stdin for interactive answers
func WithInput(in io.Reader) Option {
	return func(o *options) {
		o.in = in
	}
}

func buildOptions(opts []Option) *options {
	o := &options{out: os.Stdout, in: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// loadSelector finds campushire.json and wraps it in a server selector that
// knows which servers have a stored session
func loadSelector() (*serverselect.Selector, error) {
	path, err := config.FindConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'campushire init' to create a configuration file", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &serverselect.Selector{
		Config:     cfg,
		Project:    path,
		HasSession: storedSession(cfg.TokenStore),
	}, nil
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Config, *config.Server, error) {
	selector, err := loadSelector()
	if err != nil {
		return nil, nil, err
	}

	server, err := selector.Resolve(serverAlias)
	if err != nil {
		return nil, nil, err
	}

	if server.URL == "" {
		return nil, nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid API URL", config.ConfigFileName)
	}

	return selector.Config, server, nil
}

// storedSession reports whether the configured store holds a credential for
// a server. The credential is not validated against the API.
func storedSession(storeCfg config.TokenStore) func(*config.Server) bool {
	return func(server *config.Server) bool {
		store, closeStore, err := newStore(storeCfg, server)
		if err != nil {
			return false
		}
		defer closeStore()

		ctx, cancel := context.WithTimeout(context.Background(), storeProbeTimeout)
		defer cancel()

		token, err := store.Get(ctx, auth.TokenKey)
		if err != nil && !errors.Is(err, auth.ErrNotFound) {
			log.Debug().Err(err).Str("server", server.Alias).Msg("Could not read stored credential")
		}
		return err == nil && token != ""
	}
}

// newStore builds the credential store configured for server
func newStore(cfg config.TokenStore, server *config.Server) (auth.Store, func(), error) {
	switch cfg.Backend {
	case "", config.BackendKeyring:
		return auth.NewKeyringStore(server.URL), func() {}, nil
	case config.BackendFile:
		path := cfg.Path
		if path == "" {
			var err error
			path, err = auth.DefaultCredentialsPath()
			if err != nil {
				return nil, nil, err
			}
		}
		return auth.NewFileStore(path, server.URL), func() {}, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return auth.NewRedisStore(rdb, server.URL, 0), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported token store backend '%s'", cfg.Backend)
	}
}

// newSessionEnv wires the API client, credential store and session manager
// for one command invocation
func newSessionEnv(opts ...Option) (*sessionEnv, error) {
	o := buildOptions(opts)

	server := o.server
	storeCfg := config.TokenStore{}
	if server == nil {
		cfg, selected, err := getSelectedServer(o.serverAlias)
		if err != nil {
			return nil, err
		}
		server = selected
		storeCfg = cfg.TokenStore
	}

	closeStore := func() {}
	store := o.store
	if store == nil {
		var err error
		store, closeStore, err = newStore(storeCfg, server)
		if err != nil {
			return nil, err
		}
	}

	apiClient := client.New(server.URL,
		client.WithLogger(log.Logger),
		client.WithUserAgent(UserAgent),
	)
	if o.httpClient != nil {
		apiClient.SetHTTPClient(o.httpClient)
	}

	return &sessionEnv{
		server:  server,
		client:  apiClient,
		manager: session.New(apiClient, store, session.WithLogger(log.Logger)),
		out:     o.out,
		in:      o.in,
		close:   closeStore,
	}, nil
}

// readPassword prompts for a password without echo when stdin is a terminal
func readPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	if in == os.Stdin && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(out, prompt)
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out) // New line after password input
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(bytePassword), nil
	}
	if in == os.Stdin {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or CAMPUSHIRE_PASSWORD env var)")
	}

	// Piped input from tests or scripts: first line is the password
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
