package app

import (
	"context"
	"fmt"
	"log"

	"SellerWatch/internal/crawler"
	"SellerWatch/internal/fetcher"
	"SellerWatch/internal/models"
	"SellerWatch/internal/monitor"
	"SellerWatch/internal/notifier"
	"SellerWatch/internal/server"
	"SellerWatch/internal/store"
	"SellerWatch/pkg/config"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config *config.Config
	Repo   *store.SellerRepository
}

// New creates a new application instance with all initial settings.
func New() *App {
	cfg := config.LoadConfig("config.yml")
	repo := store.InitDB(cfg.Database.Path)
	return &App{
		Config: cfg,
		Repo:   repo,
	}
}

// destinations maps each monitor kind to its configured webhook URL.
func (a *App) destinations() map[models.MonitorKind]string {
	return map[models.MonitorKind]string{
		models.KindListings: a.Config.Webhooks.Listings,
		models.KindSales:    a.Config.Webhooks.Sales,
	}
}

// buildOrchestrator launches the browser-backed crawl pipeline. The
// caller must close the returned fetcher when done.
func (a *App) buildOrchestrator() (*monitor.Orchestrator, *fetcher.RodFetcher, error) {
	f, err := fetcher.New(a.Config.Scraper)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start page fetcher: %w", err)
	}
	c := crawler.New(f, a.Config.Marketplace, a.Config.Monitor)
	d := notifier.New()
	o := monitor.NewOrchestrator(a.Repo, c, d, a.destinations(),
		a.Config.Monitor.ItemSpacing.Std(), a.Config.Monitor.SellerPause.Std())
	return o, f, nil
}

// RunCycleOnce executes a single monitoring cycle and returns.
func (a *App) RunCycleOnce(ctx context.Context) {
	orchestrator, f, err := a.buildOrchestrator()
	if err != nil {
		log.Fatalf("Could not build monitoring pipeline: %v", err)
	}
	defer f.Close()

	orchestrator.RunCycle(ctx)
}

// CheckSeller runs the read-only probe for one tracked seller and
// logs the counts.
func (a *App) CheckSeller(ctx context.Context, handle, kindStr string) {
	kind, err := models.ParseMonitorKind(kindStr)
	if err != nil {
		log.Fatalf("Invalid kind: %v", err)
	}
	seller, err := a.Repo.Get(handle, kind)
	if err != nil {
		log.Fatalf("Could not load seller %s (%s): %v", handle, kind, err)
	}

	orchestrator, f, err := a.buildOrchestrator()
	if err != nil {
		log.Fatalf("Could not build monitoring pipeline: %v", err)
	}
	defer f.Close()

	result, err := orchestrator.CheckSeller(ctx, seller)
	if err != nil {
		log.Fatalf("Check failed for seller %s: %v", handle, err)
	}
	log.Printf("Seller %s (%s): %d items crawled, %d would be new.", handle, kind, result.Crawled, result.New)
}

// RunDaemon starts the scheduler and the admin API server and blocks
// until the context is canceled or the server fails. On return the
// scheduler is stopped and the browser is shut down.
func (a *App) RunDaemon(ctx context.Context) {
	orchestrator, f, err := a.buildOrchestrator()
	if err != nil {
		log.Fatalf("Could not build monitoring pipeline: %v", err)
	}
	defer f.Close()

	scheduler := monitor.NewScheduler(orchestrator,
		a.Config.Monitor.Interval.Std(), a.Config.Monitor.TriggerDelay.Std())
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := server.New(a.Repo, orchestrator, scheduler)
	if err := srv.Start(ctx, a.Config.Server.Addr); err != nil {
		log.Fatalf("Admin server failed: %v", err)
	}
}
