package cli

import (
	"context"
	"fmt"

	"github.com/lazypower/takenote/internal/backup"
	"github.com/lazypower/takenote/internal/config"
	"github.com/lazypower/takenote/internal/logging"
	"github.com/lazypower/takenote/internal/notebook"
	"github.com/lazypower/takenote/internal/query"
	"github.com/lazypower/takenote/internal/settings"
	"github.com/lazypower/takenote/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "takenote",
	Short:             "Local-first notes with folders, tags and attachments",
	Long:              "takenote keeps markdown notes, folders, tags and attachments in a single SQLite file, with a local HTTP API for the editor and lossless backup archives.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Global flags and the state they resolve to.
var (
	configPath string
	dbPath     string
	logLevel   string

	cfg    config.Config
	logger zerolog.Logger
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.takenote/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config and TAKENOTE_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(settingCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
	return nil
}

// app bundles the layers a command works through.
type app struct {
	db       *store.DB
	reader   *query.Reader
	notebook *notebook.Service
	settings *settings.Store
	backup   *backup.Codec
}

// openApp opens the configured database, seeding it on first use.
func openApp(ctx context.Context) (*app, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if seeded, err := db.SeedIfEmpty(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed db: %w", err)
	} else if seeded {
		logger.Info().Str("db", path).Msg("new database seeded with welcome notes")
	}

	prefs, err := settings.New(db, cfg.Settings.CacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := prefs.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		db:       db,
		reader:   query.New(db, logger),
		notebook: notebook.New(db, logger),
		settings: prefs,
		backup:   backup.New(db, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func stderr(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
