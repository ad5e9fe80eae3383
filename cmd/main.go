package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"

	"github.com/agromarket/search-alerts/internal/api"
	"github.com/agromarket/search-alerts/internal/config"
	"github.com/agromarket/search-alerts/internal/delivery"
	"github.com/agromarket/search-alerts/internal/logger"
	"github.com/agromarket/search-alerts/internal/metrics"
	"github.com/agromarket/search-alerts/internal/repositories"
	"github.com/agromarket/search-alerts/internal/services"
)

func runEngine(cfg *config.Config, dbContext *repositories.DbContext, bus EventBus.Bus) (stop func()) {

	searches := repositories.NewSearchRepository(dbContext.DB)
	listings := repositories.NewListingsRepository(dbContext.DB)
	alerts := repositories.NewAlertsRepository(dbContext.DB)
	notifications := repositories.NewNotificationsRepository(dbContext.DB)

	notifier := services.NewNotifier(notifications, bus)
	notifier.SetRateLimit(cfg.Notifier.EmitMaxPerSecond)

	scanner, err := services.NewScanner(bus, searches, listings, alerts, notifier, alerts, cfg.Scanner)
	if err != nil {
		log.Fatalf("can't create scanner: %v", err)
	}

	scheduler, err := services.NewScanScheduler(scanner, cfg.Scanner.CronSpec)
	if err != nil {
		log.Fatalf("can't create scan scheduler: %v", err)
	}

	cleaner, err := services.NewCleaner(alerts, notifications, cfg.Scanner.RetentionInDays)
	if err != nil {
		log.Fatalf("can't create cleaner: %v", err)
	}

	if cfg.Notifier.TelegramToken != "" {
		if _, err = delivery.NewTelegram(cfg.Notifier.TelegramToken, bus); err != nil {
			log.Fatalf("can't create telegram delivery: %v", err)
		}
	}

	categories := repositories.NewCachedCategories(repositories.NewCategoriesRepository(dbContext.DB))
	searchService := services.NewSearchService(searches, categories, bus)

	http.HandleFunc("/internal/scan", api.NewTriggerHandler(scanner, cfg.Scanner.TriggerSecret))
	http.HandleFunc("/searches", api.NewSearchesHandler(searchService))
	http.HandleFunc("/searches/", api.NewSearchesHandler(searchService))
	http.HandleFunc("/notifications", api.NewNotificationsHandler(notifications))

	return func() {
		scheduler.Stop()
		cleaner.Stop()
	}
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	bus := EventBus.New()

	stopEngine := runEngine(cfg, dbContext, bus)
	defer stopEngine()

	metrics.StartMetricsServer()

	<-ctx.Done()

	log.Info("Shutting down services...")
}
