package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveVehicles prometheus.Gauge

	Passes       prometheus.Counter
	TicksSkipped prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	BookingsCreated   prometheus.Counter
	BookingConflicts  prometheus.Counter
	BookingsRejected  *prometheus.CounterVec // reason label: unauthenticated|invalid_passenger|persistence
	BookingsCancelled prometheus.Counter
	SeatsReserved     prometheus.Counter

	TickDuration    prometheus.Histogram
	PublishDuration prometheus.Histogram

	StepCount    prometheus.Gauge
	TickInterval prometheus.Gauge // seconds
}

func NewCollector(stepCount int, tickInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_active_vehicles",
			Help: "Number of vehicles currently included in simulation passes.",
		}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_simulation_passes_total",
			Help: "Total completed simulation passes.",
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_ticks_skipped_total",
			Help: "Vehicle ticks skipped due to unresolved or degenerate routes.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_nats_published_total",
			Help: "Total NATS position messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_bookings_created_total",
			Help: "Total bookings confirmed and persisted.",
		}),
		BookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_booking_seat_conflicts_total",
			Help: "Booking attempts rejected because requested seats were taken.",
		}),
		BookingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_bookings_rejected_total",
			Help: "Booking attempts rejected before or after reservation.",
		}, []string{"reason"}),
		BookingsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_bookings_cancelled_total",
			Help: "Total bookings cancelled with seats released.",
		}),
		SeatsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_seats_reserved_total",
			Help: "Total seats successfully reserved.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_tick_duration_seconds",
			Help:    "Duration of one full simulation pass over all vehicles.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		StepCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_step_count",
			Help: "Configured sub-steps between consecutive waypoints.",
		}),
		TickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_tick_interval_seconds",
			Help: "Tick interval in seconds.",
		}),
	}

	// Register
	reg.MustRegister(
		c.ActiveVehicles,
		c.Passes, c.TicksSkipped,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.BookingsCreated, c.BookingConflicts, c.BookingsRejected, c.BookingsCancelled, c.SeatsReserved,
		c.TickDuration, c.PublishDuration,
		c.StepCount, c.TickInterval,
	)

	c.StepCount.Set(float64(stepCount))
	c.TickInterval.Set(tickInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
