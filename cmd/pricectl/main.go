package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/price-tracker/internal/app"
	"github.com/joseph-ayodele/price-tracker/internal/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags and the lazily built App.
type cli struct {
	configFile string
	secretFile string
	dbDriver   string
	dbURL      string
	logLevel   string

	appOpts []app.Option
	app     *app.App
}

func newRootCommand(opts ...app.Option) *cobra.Command {
	c := &cli{appOpts: opts}
	root := &cobra.Command{
		Use:           "pricectl",
		Short:         "Extract, review and export price-tag records",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			err := c.app.Close()
			c.app = nil
			return err
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "optional config file (yaml, json or toml)")
	pf.StringVar(&c.secretFile, "secret", common.DefaultSecretFile, "JSON file holding openai_api_key")
	pf.StringVar(&c.dbDriver, "db-driver", "", "database driver: postgres or sqlite (overrides DB_DRIVER)")
	pf.StringVar(&c.dbURL, "db-url", "", "database DSN (overrides DB_URL)")
	pf.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		extractCommand(c),
		extractDirCommand(c),
		watchCommand(c),
		reviewCommand(c),
		pendingCommand(c),
		listCommand(c),
		exportCommand(c),
		storesCommand(c),
		migrateCommand(c),
		statsCommand(c),
	)
	return root
}

func (c *cli) config() (common.Config, error) {
	cfg, err := common.LoadConfig(common.LoadOptions{ConfigFile: c.configFile, SecretFile: c.secretFile})
	if err != nil {
		return common.Config{}, err
	}
	if c.dbDriver != "" {
		cfg.Database.Driver = c.dbDriver
	}
	if c.dbURL != "" {
		cfg.Database.DSN = c.dbURL
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	} else if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}
	return cfg, cfg.Validate()
}

// open builds the App once per invocation. Logs go to stderr so stdout
// stays machine readable.
func (c *cli) open(cmd *cobra.Command) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger := common.NewLogger(cfg.Log.Level, cmd.ErrOrStderr())
	a, err := app.New(cmd.Context(), cfg, logger, c.appOpts...)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseStoreID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("store id %q is not a UUID", s)
	}
	return &id, nil
}
