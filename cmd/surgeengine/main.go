// cmd/surgeengine — PSX volume surge detection engine.
//
// Pipeline: [Feed WS] → [Sharded Aggregation] → [Surge Eval + Scoring] →
// [Alert Book] with completed candles fanned out to Redis, SQLite, and the
// dashboard gateway. The feed connection follows PSX market hours; the rest
// of the pipeline runs 24/7 so late consumers and the gateway stay available.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"surge-systemv1/config"
	"surge-systemv1/internal/bus"
	"surge-systemv1/internal/engine"
	"surge-systemv1/internal/feed"
	"surge-systemv1/internal/gateway"
	"surge-systemv1/internal/logger"
	"surge-systemv1/internal/markethours"
	"surge-systemv1/internal/metrics"
	"surge-systemv1/internal/model"
	"surge-systemv1/internal/notification"
	redisstore "surge-systemv1/internal/store/redis"
	sqlitestore "surge-systemv1/internal/store/sqlite"
	"surge-systemv1/internal/universe"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[surgeengine] starting...")

	// .env is optional; real deployments set the environment directly.
	godotenv.Load()
	cfg := config.Load()

	// Structured logger for service-level events; hot paths keep stdlib log.
	logLevel := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	logger.Init("surgeengine", logLevel)

	// ---- Always-on mode (feedsim / off-hours testing) ----
	alwaysOn := strings.EqualFold(os.Getenv("FEED_ALWAYS_ON"), "true")
	if alwaysOn {
		log.Println("[surgeengine] *** FEED_ALWAYS_ON — market hours gating disabled ***")
	}

	// ---- Seed detector config: preset + env overrides ----
	seed, ok := engine.Preset(cfg.DetectorPreset)
	if !ok {
		log.Printf("[surgeengine] unknown preset %q, using default", cfg.DetectorPreset)
		seed = engine.DefaultConfig()
	}
	seed.MinVolume = cfg.MinVolume
	seed.SurgeThreshold = cfg.SurgeThreshold
	seed.IntervalSeconds = cfg.IntervalSeconds
	seed.Capacity = cfg.CandleCapacity

	store, err := engine.NewConfigStore(seed)
	if err != nil {
		log.Fatalf("[surgeengine] invalid detector config: %v", err)
	}
	log.Printf("[surgeengine] detector: preset=%s interval=%ds min_vol=%d threshold=%.2f",
		cfg.DetectorPreset, seed.IntervalSeconds, seed.MinVolume, seed.SurgeThreshold)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- SQLite writer (off hot path) ----
	os.MkdirAll("data", 0o755)
	sqlWriter, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[surgeengine] sqlite init failed: %v", err)
	}
	defer sqlWriter.Close()
	sqlWriter.OnCommit = func(d time.Duration) {
		prom.SQLiteCommitDur.Observe(d.Seconds())
	}
	health.SetSQLiteOK(true)
	log.Println("[surgeengine] sqlite writer ready")

	// ---- Redis writer ----
	redisWriter, err := redisstore.New(redisstore.WriterConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[surgeengine] WARNING: redis init failed: %v (continuing without redis)", err)
		health.SetRedisConnected(false)
		redisWriter = nil
	} else {
		health.SetRedisConnected(true)
		redisWriter.OnWrite = func(d time.Duration) {
			prom.RedisWriteDur.Observe(d.Seconds())
		}
		redisWriter.Breaker().OnStateChange = func(from, to redisstore.State) {
			log.Printf("[redis] circuit breaker %s → %s", from, to)
			prom.RedisCircuitBreakerState.Set(float64(to))
			if to == redisstore.StateOpen {
				prom.RedisCircuitBreakerTrips.Inc()
			}
		}
		log.Println("[surgeengine] redis writer ready")
	}

	// ---- Periodic liveness checks ----
	if redisWriter != nil {
		health.StartLivenessChecker(ctx, redisWriter.Client(), sqlWriter.DB(), 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, sqlWriter.DB(), 10*time.Second)
	}

	// ---- Symbol universe ----
	lookupCtx, lookupCancel := context.WithTimeout(ctx, 15*time.Second)
	symbols := universe.New(cfg.SymbolsURL, cfg.ParseFallbackSymbols()).Symbols(lookupCtx)
	lookupCancel()

	// ---- Engine ----
	eng := engine.New(store, engine.Config{})
	eng.OnTick = func() { prom.TicksTotal.Inc() }
	eng.OnMalformedTick = func() { prom.MalformedTicks.Inc() }
	eng.OnDroppedTick = func() { prom.DroppedTicks.Inc() }
	eng.OnCandleClosed = func() { prom.CandlesTotal.Inc() }

	// ---- Notification ----
	var notifiers []notification.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tg, err := notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("[surgeengine] WARNING: telegram init failed: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if len(notifiers) == 0 {
		notifiers = append(notifiers, notification.NewLogNotifier())
	}
	dispatcher := notification.NewDispatcher(notifiers...)
	dispatcher.OnFailure = func() { prom.NotifyFailures.Inc() }

	// ---- Gateway ----
	hub := gateway.NewHub(eng.Book(), eng.Quotes(), store)
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, time.Now(), func(result string) {
		prom.ConfigUpdates.WithLabelValues(result).Inc()
	})
	gatewaySrv := &http.Server{Addr: cfg.GatewayAddr, Handler: mux}
	go func() {
		log.Printf("[surgeengine] gateway listening on %s", cfg.GatewayAddr)
		if err := gatewaySrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[surgeengine] gateway error: %v", err)
		}
	}()
	hub.StartQuoteBroadcast(ctx, time.Second)

	// ---- Alert transition hooks ----
	eng.Book().OnEnter = func(a model.Alert) {
		slog.Info("surge alert entered",
			"symbol", a.Symbol, "score", a.Score, "strength", string(a.Strength),
			"trace_id", logger.GenerateTraceID(a.Symbol, a.EntryTS))
		prom.AlertsEntered.Inc()
		active, _ := eng.Book().Counts()
		prom.ActiveAlerts.Set(float64(active))
		hub.BroadcastAlert("entry", a)
		if redisWriter != nil {
			redisWriter.PublishAlert(ctx, "entry", a)
		}
		dispatcher.Dispatch(notification.SurgeEntry(a))
	}
	eng.Book().OnExit = func(a model.Alert) {
		slog.Info("surge alert exited",
			"symbol", a.Symbol, "duration", a.Duration(time.Now()).Round(time.Second).String(),
			"trace_id", logger.GenerateTraceID(a.Symbol, a.EntryTS))
		prom.AlertsExited.Inc()
		active, _ := eng.Book().Counts()
		prom.ActiveAlerts.Set(float64(active))
		hub.BroadcastAlert("exit", a)
		if redisWriter != nil {
			redisWriter.PublishAlert(ctx, "exit", a)
		}
		dispatcher.Dispatch(notification.SurgeExit(a, time.Now()))
	}

	// ---- Candle fan-out: SQLite + Redis + gateway ----
	fanout := bus.New(4096)
	fanout.OnDrop = func(name string) {
		prom.FanoutDropsTotal.WithLabelValues(name).Inc()
	}

	go sqlWriter.Run(ctx, fanout.Subscribe("sqlite"))
	if redisWriter != nil {
		go redisWriter.Run(ctx, fanout.Subscribe("redis"))
	}
	go hub.RunCandles(ctx, fanout.Subscribe("gateway"))
	go fanout.Run(ctx, eng.Candles())

	// Channel saturation + market state + quote flush, one housekeeping loop.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range fanout.ChannelStats() {
					if s.Cap > 0 {
						prom.ChannelSaturationPct.WithLabelValues("fanout_" + s.Name).Set(float64(s.Len) / float64(s.Cap) * 100)
					}
				}
				if markethours.IsMarketOpen(time.Now()) {
					prom.MarketState.Set(1)
				} else {
					prom.MarketState.Set(0)
				}
				prom.TrackedSymbols.Set(float64(eng.Quotes().Len()))
				if redisWriter != nil {
					redisWriter.WriteQuotes(ctx, eng.Quotes().All())
				}
			}
		}
	}()

	// ---- Engine workers ----
	go eng.Run(ctx)
	health.SetEngineOK(true)
	log.Printf("[surgeengine] pipeline ready: %d symbols, %s", len(symbols), markethours.StatusString(time.Now()))

	// ---- Feed → engine demux ----
	tickCh := make(chan model.Tick, 10000)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-tickCh:
				eng.Offer(tick)
			}
		}
	}()

	// ---- Feed session loop: connect around market hours ----
	go func() {
		for {
			now := time.Now()
			if !alwaysOn && !markethours.IsMarketOpen(now) {
				connectAt := markethours.ConnectTime(markethours.NextOpen(now))
				wait := connectAt.Sub(now)
				if wait > 0 {
					log.Printf("[surgeengine] ⏸ %s — sleeping %v until feed connect",
						markethours.StatusString(now), wait.Truncate(time.Second))
					health.SetFeedConnected(false)
					select {
					case <-ctx.Done():
						return
					case <-time.After(wait):
					}
				}
			}

			client, err := feed.New(feed.Config{
				URL:        cfg.FeedURL,
				Symbols:    symbols,
				TOTPSecret: cfg.FeedTOTPSecret,
			})
			if err != nil {
				log.Printf("[surgeengine] feed init failed: %v, retrying in 30s", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(30 * time.Second):
				}
				continue
			}
			client.OnReconnect = func() {
				prom.FeedReconnects.Inc()
				health.SetFeedConnected(false)
			}
			client.OnTick = func(t model.Tick) {
				health.SetFeedConnected(true)
				health.SetLastTickTime(t.TS)
			}

			// Session deadline at market close; always-on sessions run until
			// shutdown.
			sessionCtx := ctx
			var sessionCancel context.CancelFunc = func() {}
			if !alwaysOn {
				closeTime := markethours.TodayClose(time.Now())
				log.Printf("[surgeengine] 📡 feed session until %s PKT",
					closeTime.In(markethours.PKT).Format("15:04:05"))
				sessionCtx, sessionCancel = context.WithDeadline(ctx, closeTime)
			}

			if err := client.Start(sessionCtx, tickCh); err != nil {
				log.Printf("[surgeengine] feed session ended: %v", err)
			}
			sessionCancel()
			health.SetFeedConnected(false)

			if ctx.Err() != nil {
				return
			}
			log.Println("[surgeengine] 🔌 feed disconnected — waiting for next session")
		}
	}()

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[surgeengine] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	gatewaySrv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)

	if redisWriter != nil {
		redisWriter.Close()
	}

	log.Println("[surgeengine] shutdown complete.")
}
