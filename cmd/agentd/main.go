package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trading-agentv1/config"
	"trading-agentv1/internal/agent"
	"trading-agentv1/internal/aggregate"
	"trading-agentv1/internal/api"
	"trading-agentv1/internal/exchange"
	"trading-agentv1/internal/gateway"
	"trading-agentv1/internal/ledger"
	"trading-agentv1/internal/logger"
	"trading-agentv1/internal/metrics"
	"trading-agentv1/internal/model"
	"trading-agentv1/internal/oracle"
	redisstore "trading-agentv1/internal/store/redis"
	sqlitestore "trading-agentv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[agentd] starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Load config from env ----
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("[agentd] config load failed: %v", err)
	}
	logger.Init("agentd", logger.ParseLevel(cfg.LogLevel))
	prom := metrics.New()

	// ---- Account store (degrades to in-memory when unreachable) ----
	var store model.LedgerStore
	var cache agent.CycleCache
	redisStore, err := redisstore.New(redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Warn("redis unavailable, account state will not persist", "error", err)
	} else {
		store = redisStore
		cache = redisStore
		defer redisStore.Close()
	}

	// ---- Audit journal (best-effort) ----
	var journalWriter model.JournalWriter
	var journal *sqlitestore.Journal
	os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755)
	journal, err = sqlitestore.NewJournal(cfg.SQLite.Path)
	if err != nil {
		slog.Warn("sqlite journal unavailable", "error", err)
		journal = nil
	} else {
		journalWriter = journal
		defer journal.Close()
	}

	// ---- Ledger ----
	account := ledger.New(cfg.Agent.InitialBalance, store, journalWriter, prom)
	if err := account.Load(ctx); err != nil {
		log.Fatalf("[agentd] ledger load failed: %v", err)
	}

	// ---- Market data + oracle + orchestrator ----
	venue := exchange.NewClient(exchange.Config{
		BaseURL:      cfg.Exchange.BaseURL,
		BlockchainID: cfg.Exchange.BlockchainID,
		Timeout:      cfg.Exchange.Timeout,
	})
	aggregator := aggregate.New(venue, prom)

	if cfg.Oracle.APIKey == "" {
		slog.Warn("ORACLE_API_KEY not set, decision cycles will fail")
	}
	oracleClient := oracle.NewClient(oracle.Config{
		BaseURL:     cfg.Oracle.BaseURL,
		APIKey:      cfg.Oracle.APIKey,
		Model:       cfg.Oracle.Model,
		Temperature: float32(cfg.Oracle.Temperature),
	}, prom)

	hub := gateway.NewHub(prom)
	orchestrator := agent.New(aggregator, account, oracleClient, oracleClient, hub, cache, prom)

	// ---- HTTP server ----
	server := api.NewServer(api.Config{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, aggregator, orchestrator, account, hub, journal)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// ---- Optional cycle loop ----
	if cfg.Agent.CycleInterval > 0 {
		go orchestrator.RunLoop(ctx, cfg.Agent.CycleInterval)
	} else {
		log.Println("[agentd] cycle loop disabled, trigger via POST /api/v1/trade_decision")
	}

	// ---- Graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[agentd] received %s, shutting down...", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("[agentd] server error: %v", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("[agentd] server shutdown: %v", err)
	}

	// Final save so a restart resumes from the latest state.
	account.Save(shutdownCtx)
	log.Println("[agentd] stopped")
}
