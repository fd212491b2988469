package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"portfolio-observer/src/alerts"
	"portfolio-observer/src/config"
	"portfolio-observer/src/feed"
	"portfolio-observer/src/feed/yahoo"
	"portfolio-observer/src/helpers"
	"portfolio-observer/src/interfaces"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
	"portfolio-observer/src/network"
	"portfolio-observer/src/server"
	"portfolio-observer/src/storage"
	"portfolio-observer/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Local .env overrides (connection strings, log level) load before flags
	_ = godotenv.Load()

	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if conn := os.Getenv("PO_DB_CONN"); conn != "" {
		cfg.Storage.DBConnectionString = conn
	}
	if level := os.Getenv("PO_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 1. Storage
	var db interfaces.IDatabase

	switch cfg.Storage.DBType {
	case "postgres":
		db, err = storage.NewPostgresDB(cfg.MConfig, appLogger.Named("PostgresDB"))
	default:
		db, err = storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger.Named("SQLiteDB"))
	}

	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}
	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}
	defer db.Close()

	// 2. Engine: rules, targets and watchlist come back from storage
	engine := alerts.NewAlertEngine(cfg.MConfig, db, appLogger.Named("AlertEngine"))
	if err := engine.LoadPersisted(); err != nil {
		appLogger.Critical("Failed to load persisted state: %v", err)
	}

	// 3. Feed stack
	var netMgr interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger.Named("Network"))

	pollCodes := func() []string {
		return append(engine.WatchedCodes(), alerts.DashboardCodes()...)
	}

	yahooFeed := yahoo.NewYahooPriceFeed(cfg.MConfig, pollCodes(), netMgr, appLogger)
	yahooFeed.UpdateMetadata(engine.Watchlist())

	feedMgr := feed.NewFeedManager([]interfaces.IPriceFeed{yahooFeed}, appLogger.Named("FeedManager"))

	// 4. In-memory snapshot history
	history := utils.NewHistoryStore(helpers.GetRecommendedMemoryLimit(), cfg.Feed.HistoryPoints, appLogger.Named("HistoryStore"))

	// 5. HTTP/WS surface
	srv := server.NewAlertServer(cfg.MConfig, engine, history, appLogger.Named("AlertServer"))
	srv.OnWatchlistChange = func([]string) {
		if err := feedMgr.UpdateCodes(pollCodes()); err != nil {
			appLogger.Error("Failed to repoint feed: %v", err)
		}
		yahooFeed.UpdateMetadata(engine.Watchlist())
	}

	// Everything past wiring talks to the server through the exchange contract
	var exchanger interfaces.IDataExchanger = srv

	// 6. Initial fetch so the first client sees data immediately
	appLogger.Info("Fetching initial snapshots...")
	initial, err := feedMgr.FetchSnapshots(pollCodes())
	if err != nil {
		appLogger.Warning("Initial fetch failed: %v", err)
	}
	for _, snap := range initial {
		history.Add(snap)
	}
	if err := db.SaveSnapshots(snapshotList(initial)); err != nil {
		appLogger.Error("Failed to persist initial snapshots: %v", err)
	}

	payload := engine.Recompute(history.LatestAll())
	payload.Type = "INITIAL"
	exchanger.UpdateState(payload)

	appLogger.Info("Initialization complete.")

	// 7. Start server
	go func() {
		if err := exchanger.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 8. Main loop (push model)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapWg := &sync.WaitGroup{}
	updatesChan := make(chan map[string]models.MInstrumentSnapshot, 100)

	if err := feedMgr.Start(ctx, updatesChan, wrapWg); err != nil {
		appLogger.Critical("Failed to start feed: %v", err)
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	cleanupTicker := time.NewTicker(6 * time.Hour)
	defer cleanupTicker.Stop()

	appLogger.Info("Starting alert loop (Push Model)...")

	for {
		select {
		case updates, ok := <-updatesChan:
			if !ok {
				appLogger.Info("Feed closed channel.")
				engine.Flush()
				return
			}

			appLogger.Info("Received update for %d codes", len(updates))

			// Backfill change figures from history when the feed omitted
			// the previous close, then record the cycle
			for code, snap := range updates {
				if snap.PreviousClose <= 0 {
					if prev, ok := history.Previous(code); ok {
						snap.PreviousClose = prev.LivePrice
						snap.DeriveChange()
						updates[code] = snap
					}
				}
				history.Add(updates[code])
			}

			if err := db.SaveSnapshots(snapshotList(updates)); err != nil {
				appLogger.Error("Failed to persist snapshots: %v", err)
			}

			// Full pipeline over the merged latest view, then push
			payload := engine.Recompute(history.LatestAll())
			exchanger.Broadcast(payload)

		case <-cleanupTicker.C:
			if err := db.CleanupOldData(); err != nil {
				appLogger.Error("Cleanup failed: %v", err)
			}

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()
			wrapWg.Wait()
			engine.Flush()
			return
		}
	}
}

// -----------------------------------------------------------------------------

func snapshotList(m map[string]models.MInstrumentSnapshot) []models.MInstrumentSnapshot {
	out := make([]models.MInstrumentSnapshot, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out
}
