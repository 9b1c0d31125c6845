package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/card-thumbnails/app/api"
	"github.com/lysyi3m/card-thumbnails/app/batch"
	"github.com/lysyi3m/card-thumbnails/app/cfg"
	"github.com/lysyi3m/card-thumbnails/app/config"
	"github.com/lysyi3m/card-thumbnails/app/database"
	"github.com/lysyi3m/card-thumbnails/app/feed"
	"github.com/lysyi3m/card-thumbnails/app/logger"
	"github.com/lysyi3m/card-thumbnails/app/media"
	"github.com/lysyi3m/card-thumbnails/app/tasks"
	"github.com/lysyi3m/card-thumbnails/app/thumbnail"
)

type app struct {
	cfg      *cfg.Cfg
	settings *config.Settings
	db       *database.DB
	nodes    database.NodeRepository
	files    database.FileRepository
	styles   *media.StyleService
	resolver *thumbnail.Resolver
	runner   *batch.Runner
}

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		// go-flags has already printed the parse error
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logger.Setup(appCfg.Debug, appCfg.LogFormat)

	if err := run(appCfg); err != nil {
		slog.Error("Command failed", "command", appCfg.Command, "error", err)
		os.Exit(1)
	}
}

func run(c *cfg.Cfg) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch c.Command {
	case cfg.CommandServe:
		return a.serve(ctx)
	case cfg.CommandGenerate:
		return a.generate(ctx)
	case cfg.CommandBuild:
		return a.build()
	case cfg.CommandImportFeed:
		return a.importFeed(ctx)
	default:
		return fmt.Errorf("unknown command %q", c.Command)
	}
}

func newApp(c *cfg.Cfg) (*app, error) {
	slog.Info("Starting Card Thumbnails", "version", c.Version, "command", c.Command)

	settings, err := config.NewLoader(c.SettingsFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	slog.Debug("Connecting to database", "path", c.DBPath)
	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database migrations applied", "version", version, "dirty", dirty)

	nodes := database.NewNodeRepository(db)
	blocks := database.NewBlockRepository(db)
	files := database.NewFileRepository(db)

	styles := media.NewStyleService(media.Options{
		FilesDir:    c.FilesDir,
		AssetsDir:   c.AssetsDir,
		PublicPath:  c.PublicPath,
		BaseURL:     c.BaseUrl,
		MaxFileSize: settings.Import.MaxImageSize,
		Style:       settings.Style,
	})

	resolver, err := thumbnail.New(thumbnail.Deps{
		Nodes:  nodes,
		Blocks: blocks,
		Files:  files,
		Styles: styles,
		Logger: slog.Default().With("component", "thumbnail"),
	}, settings)
	if err != nil {
		db.Close()
		return nil, err
	}

	runner := batch.NewRunner(nodes, resolver, batch.NewRegistry(), settings.PageSize,
		slog.Default().With("component", "batch"))

	return &app{
		cfg:      c,
		settings: settings,
		db:       db,
		nodes:    nodes,
		files:    files,
		styles:   styles,
		resolver: resolver,
		runner:   runner,
	}, nil
}

func (a *app) generate(ctx context.Context) error {
	run, err := a.runner.Run(ctx, a.cfg.ContentType)
	fmt.Println(run.Summary)
	return err
}

func (a *app) build() error {
	built := 0
	for _, id := range a.cfg.NodeIDs {
		ok, err := a.resolver.Build(id)
		if err != nil {
			return err
		}
		if !ok {
			slog.Warn("Node not found", "nid", id)
			continue
		}
		built++
	}

	fmt.Println(batch.FormatSummary(built))
	return nil
}

func (a *app) importFeed(ctx context.Context) error {
	task := tasks.NewImportFeedTask(a.cfg.FeedURL, a.cfg.ContentType, a.cfg.Langcode, a.newImporter(), a.resolver)
	task.Start()
	if err := task.Execute(ctx); err != nil {
		return err
	}

	fmt.Println(batch.FormatSummary(len(task.Imported())))
	return nil
}

func (a *app) newImporter() *feed.Importer {
	return feed.NewImporter(
		&http.Client{},
		a.nodes,
		a.files,
		a.styles,
		feed.ImporterOptions{
			UserAgent: a.cfg.UserAgent,
			Timeout:   a.settings.Import.GetTimeout(),
		},
		slog.Default().With("component", "feed"),
	)
}

func (a *app) serve(ctx context.Context) error {
	scheduler := tasks.NewScheduler(a.runner, a.resolver, a.settings.Regenerate,
		slog.Default().With("component", "scheduler"))
	slog.Info("Starting background scheduler",
		"regenerate_interval", a.settings.Regenerate.GetInterval().String(),
		"content_types", a.settings.Regenerate.ContentTypes)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(a.nodes, a.files, a.resolver, a.runner.Registry(), scheduler, a.styles.StyleName(), a.cfg.Version)
	server := api.NewServer(handler, a.cfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", a.cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
