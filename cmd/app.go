package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mermaidflow/internal/aiconnectors"
	"github.com/mermaidflow/internal/capture"
	"github.com/mermaidflow/internal/chat"
	"github.com/mermaidflow/internal/config"
	"github.com/mermaidflow/internal/conversation"
	"github.com/mermaidflow/internal/database"
	"github.com/mermaidflow/internal/logging"
	"github.com/mermaidflow/internal/pipeline"
	"github.com/mermaidflow/internal/prompts"
	"github.com/mermaidflow/internal/storage"
)

// App holds the services built from one configuration.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Tracker  *conversation.Tracker
	Chats    *chat.Service

	db *sql.DB
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// loadConfig reads and validates the configuration named by the global
// --config flag.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// NewApp wires connectors, pipeline, tracker and chat storage from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Capture.Enabled {
		capture.Enable()
		log.Info().Str("dir", capture.Dir()).Msg("Completion capture enabled")
	}

	registry := prompts.DefaultRegistry()
	if err := registry.LoadDir(cfg.Prompts.Dir); err != nil {
		return nil, err
	}

	classifier, err := aiconnectors.NewConnector(ctx, cfg.Providers.Classifier.ConnectorOptions("classifier"))
	if err != nil {
		return nil, fmt.Errorf("classifier connector: %w", err)
	}
	generator, err := aiconnectors.NewConnector(ctx, cfg.Providers.Generator.ConnectorOptions("generator"))
	if err != nil {
		return nil, fmt.Errorf("generator connector: %w", err)
	}
	for _, missing := range config.MissingKeys(cfg) {
		log.Warn().Str("role", missing).Msg("API key not configured; calls will fail until it is set")
	}

	p := pipeline.New(classifier, generator, pipeline.Options{
		Prompts:    prompts.NewManager(registry),
		RepairJSON: cfg.Pipeline.RepairJSON,
	})

	tracker := conversation.NewTracker()
	tracker.SessionTimeout = cfg.Conversation.SessionTimeout
	tracker.TopicWindow = cfg.Conversation.TopicWindow
	tracker.MaxTopics = cfg.Conversation.MaxTopics
	tracker.MaxHistory = cfg.Conversation.MaxHistory

	app := &App{Config: cfg, Pipeline: p, Tracker: tracker}

	var store storage.Store
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := database.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		pg := storage.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		app.db = db
		store = pg
	default:
		store = storage.NewMemoryStore()
	}

	app.Chats = chat.NewService(storage.NewChatStore(store), tracker, p)

	log.Info().
		Str("classifier", cfg.Providers.Classifier.Provider+"/"+classifier.Model()).
		Str("generator", cfg.Providers.Generator.Provider+"/"+generator.Model()).
		Str("storage", cfg.Storage.Driver).
		Msg("Application initialised")
	return app, nil
}

// bootstrap loads configuration, sets up logging and builds the App. The
// returned cleanup must be called once the command finishes.
func bootstrap(c *cli.Context) (*App, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	logFile, err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty, cfg.Log.File)
	if err != nil {
		return nil, nil, err
	}
	app, err := NewApp(c.Context, cfg)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
		logFile.Close()
	}
	return app, cleanup, nil
}
