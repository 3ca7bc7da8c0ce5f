package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"coach-fleet/internal/config"
	"coach-fleet/internal/feed"
	"coach-fleet/internal/metrics"
	"coach-fleet/internal/publisher"
	"coach-fleet/internal/sim"
	"coach-fleet/internal/store"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sqlDB, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer sqlDB.Close()
	if err := store.Ping(ctx, sqlDB); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	if err := store.EnsureSchema(ctx, sqlDB); err != nil {
		log.Fatalf("db schema error: %v", err)
	}
	if cfg.SeedDemoData {
		if err := store.SeedDemoCatalog(ctx, sqlDB); err != nil {
			log.Fatalf("db seed error: %v", err)
		}
		log.Printf("demo catalog seeded")
	}
	st := store.New(sqlDB)

	cat, err := st.LoadCatalog(ctx)
	if err != nil {
		log.Fatalf("load catalog error: %v", err)
	}
	vehicles := cat.Vehicles()
	if len(vehicles) == 0 {
		log.Printf("catalog has no vehicles, nothing to simulate (set SEED_DEMO_DATA=1 for demo data)")
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrvCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.StepCount, cfg.TickInterval)
		mctx, mcancel := context.WithCancel(ctx)
		metricsSrvCancel = mcancel
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-mctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Initialize NATS publisher
	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	// Attach a tracking feed so the latest per-vehicle position is
	// observable in-process as well as through the bus.
	trackingFeed, err := feed.Subscribe(pub.Conn())
	if err != nil {
		log.Fatalf("feed subscribe error: %v", err)
	}
	defer trackingFeed.Close()

	simulator := sim.New(cat, pub, st, cfg.TickInterval, cfg.StepCount, mcol)
	for _, v := range vehicles {
		if route, ok := cat.Route(v.RouteID); !ok || !route.Simulatable() {
			log.Printf("warning: vehicle %s references unresolved or degenerate route %q", v.ID, v.RouteID)
		}
		simulator.Register(v)
	}

	log.Printf("simulating %d vehicles, tick=%s steps=%d", len(vehicles), cfg.TickInterval, cfg.StepCount)

	// Block running simulation passes until context cancelled; the pass in
	// flight finishes before Run returns.
	if err := simulator.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("simulator stopped: %v", err)
	}

	if metricsSrvCancel != nil {
		metricsSrvCancel()
	}
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
