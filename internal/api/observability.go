package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality: every label (worker index, message
// type, rejection reason) takes values from a fixed set, and the worker
// pool size is fixed at startup, so cardinality never grows.
var (
	viewTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snowfight_view_tick_duration_seconds",
		Help:    "Time spent in a worker's view_tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02},
	})

	objectTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snowfight_object_tick_duration_seconds",
		Help:    "Time spent in a worker's object_tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02},
	})

	livePlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snowfight_live_players",
		Help: "Live players owned by each worker",
	}, []string{"worker"})

	liveSnowballs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "snowfight_live_snowballs",
		Help: "Live snowballs owned by each worker",
	}, []string{"worker"})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snowfight_messages_total",
		Help: "Inbound messages processed, by type",
	}, []string{"type"}) // bounded: ping, join, movement

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snowfight_connection_rejected_total",
		Help: "Connections rejected before reaching a worker",
	}, []string{"reason"}) // bounded: rate_limit, origin, ws_total_limit, ws_ip_limit

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snowfight_websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})
)

// PrometheusMetrics adapts the package-level collectors above to
// worker.Metrics, so worker package itself never imports Prometheus.
type PrometheusMetrics struct{}

func (PrometheusMetrics) ObserveViewTick(d time.Duration)   { viewTickDuration.Observe(d.Seconds()) }
func (PrometheusMetrics) ObserveObjectTick(d time.Duration) { objectTickDuration.Observe(d.Seconds()) }
func (PrometheusMetrics) SetLivePlayers(w, n int) {
	livePlayers.WithLabelValues(workerLabel(w)).Set(float64(n))
}
func (PrometheusMetrics) SetLiveSnowballs(w, n int) {
	liveSnowballs.WithLabelValues(workerLabel(w)).Set(float64(n))
}
func (PrometheusMetrics) IncMessage(msgType string) { messagesTotal.WithLabelValues(msgType).Inc() }

// RecordConnectionRejected increments the rejection counter. reason must
// be one of the bounded label values above.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections sets the live WebSocket connection gauge.
func UpdateWSConnections(n int) {
	wsConnectionsActive.Set(float64(n))
}

// ObservabilityConfig configures the debug/pprof/metrics server.
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // must be loopback-only
}

// DefaultObservabilityConfig returns safe, loopback-only defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{Enabled: true, ListenAddr: "127.0.0.1:6060"}
}

// StartDebugServer starts the pprof/metrics/health server. Any listen
// address other than 127.0.0.1:6060 or localhost:6060 is replaced with
// 127.0.0.1:6060, keeping pprof off the open internet, unless the
// environment sets ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 debug server starting on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ debug server error: %v", err)
		}
	}()

	return nil
}

func workerLabel(w int) string {
	return strconv.Itoa(w)
}
