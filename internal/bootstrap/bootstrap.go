package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/lib/pq"

	config "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/models"
	"github.com/maheshrc27/postpipe/internal/repository"
	"github.com/maheshrc27/postpipe/internal/service"
)

// App holds everything the server and the CLI share.
type App struct {
	Config   *config.Config
	Workflow service.WorkflowService
	DB       *sql.DB
	Rows     repository.StoreOpener
}

func (a *App) Close() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

// Build connects the row store, the optional history database and the
// platform adapters, then assembles the workflow.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	rows, err := openRowStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Rows = rows

	var history repository.PostingHistoryRepository
	if cfg.PostgresURI != "" {
		db, err := openDB(cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		app.DB = db
		history = repository.NewPostingHistoryRepository(db)
	} else {
		log.Println("POSTGRES_URI not set, posting history is disabled")
	}

	var blobs service.BlobStorage
	if cfg.R2.BucketName != "" {
		r2, err := service.NewR2Service(ctx, cfg.R2)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("r2: %w", err)
		}
		blobs = r2
	} else {
		log.Println("R2 bucket not set, chart images keep their source URL")
	}

	notifier := service.NewLogNotifier()
	if cfg.SenderEmail != "" && cfg.GoogleCredentials != "" {
		gmail, err := service.NewGmailNotifier(ctx, cfg.GoogleCredentials, cfg.SenderEmail, cfg.DashboardURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("gmail: %w", err)
		}
		notifier = gmail
	}

	postRepo := repository.NewPostRepository(rows)
	loc := cfg.Window.Location

	dispatcher := service.NewDispatcher(cfg.Platforms, map[models.AdapterKind]service.Publisher{
		models.AdapterPhotoFeed: service.NewFacebookService(cfg.Graph.BaseURL, cfg.Graph.FacebookPageID, cfg.Graph.FacebookPageToken, nil),
		models.AdapterTwoPhase: service.NewInstagramService(cfg.Graph.BaseURL, cfg.Graph.InstagramAccountID, cfg.Graph.InstagramToken,
			service.NewPoller(cfg.PollAttempts, cfg.PollInterval), nil),
		models.AdapterShortText: service.NewTwitterService(ctx, cfg.Twitter.BaseURL, cfg.Twitter.UploadURL, cfg.Twitter.AccessToken),
	})

	ingestion := service.NewIngestionService(
		service.NewHTMLExtractor(nil),
		service.NewChatGenerator(cfg.Generation, cfg.Prompts),
		blobs, postRepo, notifier, cfg.Platforms, cfg.Prompts)
	scheduling := service.NewSchedulingService(postRepo, cfg.Platforms, cfg.Window, nil)
	publishing := service.NewPublishingService(postRepo, history, dispatcher, cfg.Platforms, loc, cfg.MaxDuePostsPerRun, nil)

	app.Workflow = service.NewWorkflowService(ingestion, scheduling, publishing, postRepo, history, cfg.Platforms, loc)
	return app, nil
}

func openRowStore(ctx context.Context, cfg *config.Config) (repository.StoreOpener, error) {
	switch strings.ToLower(cfg.RowStore) {
	case "memory":
		log.Println("Using the in-memory row store, data is lost on exit")
		return repository.NewMemoryOpener(), nil
	case "sheets", "":
		return repository.NewSheetsOpener(ctx, cfg.GoogleCredentials)
	}
	return nil, fmt.Errorf("unknown ROW_STORE %q", cfg.RowStore)
}

func openDB(uri string) (*sql.DB, error) {
	db, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database is unreachable: %w", err)
	}

	version, dirty, err := repository.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Database schema at version %d (dirty: %v)", version, dirty)
	return db, nil
}
