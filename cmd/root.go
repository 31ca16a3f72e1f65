// ABOUTME: Root command for site-console CLI
// ABOUTME: Handles global flags, configuration, logging and client construction

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/config"
	"github.com/kestreladvisory/site-console/internal/logger"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
	configDir  string

	// settings is filled by the root pre-run; nil in unit tests
	settings *config.Config
)

// notSignedInHint is printed when a protected command has no session
const notSignedInHint = "Not signed in. Run 'site-console login' first."

// sessionExpiredHint is printed after the backend rejected the stored token
const sessionExpiredHint = "Session expired. Run 'site-console login' to sign in again."

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "site-console",
	Short: "Operator console for the Kestrel Advisory site",
	Long: `site-console signs administrators in, recovers forgotten passwords and
reads the site's content and admin collections from the backend API.

Environment Variables:
  SITE_API_URL        Backend API URL (default: http://localhost:8080)
  SITE_API_ALL_PROXY  ssh+socks5://user@host:port?private-key=/path
  SITE_CONFIG_DIR     Session and log directory (default: ~/.config/site-console)
  LOG_LEVEL           debug, info, warn, error (default: info)
  LOG_FORMAT          text, json (default: text)
  LOG_FILE            Write logs to this file instead of stderr`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides SITE_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory for session and logs (overrides SITE_CONFIG_DIR)")
}

// setup loads .env and the environment, then points logging at stderr or LOG_FILE
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if apiURL != "" {
		if err := config.ValidateAPIURL(config.EnsureScheme(apiURL)); err != nil {
			return fmt.Errorf("--api-url: %w", err)
		}
	}
	settings = cfg

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := logger.OpenFile(cfg.LogFile, GetConfigDir())
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}
	logger.Init(out, cfg.LogLevel, cfg.LogFormat)
	return nil
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return config.EnsureScheme(apiURL)
	}
	if settings != nil {
		return settings.APIURL
	}
	if envURL := os.Getenv("SITE_API_URL"); envURL != "" {
		return config.EnsureScheme(envURL)
	}
	return config.DefaultAPIURL
}

// GetConfigDir returns the state directory from flag, env, or the XDG default
func GetConfigDir() string {
	if configDir != "" {
		return configDir
	}
	if settings != nil && settings.ConfigDir != "" {
		return settings.ConfigDir
	}
	if dir := os.Getenv("SITE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return config.DefaultConfigDir()
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

func allProxy() string {
	if settings != nil {
		return settings.AllProxy
	}
	return os.Getenv("SITE_API_ALL_PROXY")
}

// newStore opens the persisted session for this config directory
func newStore() *session.FileStore {
	return session.NewFileStore(GetConfigDir())
}

// newClient builds an API client bound to store. A forced sign-out runs nav.
func newClient(store session.Store, nav session.Navigator) (*client.Client, error) {
	transport, err := client.NewTransport(allProxy())
	if err != nil {
		return nil, err
	}

	return client.New(GetAPIURL(),
		client.WithStore(store),
		client.WithNavigator(nav),
		client.WithHTTPClient(&http.Client{Transport: transport}),
	), nil
}

// hintNavigator tells a CLI user to sign in again after a forced sign-out
func hintNavigator(w io.Writer) session.Navigator {
	return session.NavigatorFunc(func() {
		slog.Debug("Redirecting to login")
		fmt.Fprintln(w, sessionExpiredHint)
	})
}

// requireSession is the gate for protected commands: 0 when signed in, 2 otherwise
func requireSession(w io.Writer, store session.Store) int {
	if decision := session.Authorize(store); !decision.Allow {
		fmt.Fprintln(w, notSignedInHint)
		return 2
	}
	return 0
}

// reportError prints err and maps it to an exit code. Backend rejections are
// 1; transport failures and forced sign-outs are 2.
func reportError(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", client.ErrorMessage(err))

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && !errors.Is(err, client.ErrSessionInvalidated) {
		return 1
	}
	return 2
}
