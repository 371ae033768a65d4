package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Метрики решателя
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	SolvesInFlight       prometheus.Gauge
	StageDuration        *prometheus.HistogramVec

	// Метрики графа
	GraphNodesTotal *prometheus.HistogramVec
	GraphEdgesTotal *prometheus.HistogramVec

	// Метрики конвейера
	SnapDistance      *prometheus.HistogramVec
	ConnectorsAdded   *prometheus.HistogramVec
	RouteLengthMeters *prometheus.HistogramVec
	RouteOverhead     *prometheus.HistogramVec
	MatrixPairsTotal  *prometheus.CounterVec

	// Метрики выгрузки
	ExportsTotal *prometheus.CounterVec

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		// Метрики решателя
		SolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"mode", "status"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of solve operations",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"mode"},
		),

		SolvesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solves_in_flight",
				Help:      "Current number of solve operations being processed",
			},
		),

		StageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Duration of individual pipeline stages",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 60},
			},
			[]string{"stage"},
		),

		// Метрики графа
		GraphNodesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes_total",
				Help:      "Number of nodes in processed graphs",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
			[]string{"operation"},
		),

		GraphEdgesTotal: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges_total",
				Help:      "Number of edges in processed graphs",
				Buckets:   []float64{20, 100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"operation"},
		),

		// Метрики конвейера
		SnapDistance: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "snap_distance_meters",
				Help:      "Distance from requested coordinates to the snapped node",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"strategy"},
		),

		ConnectorsAdded: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "connectors_added",
				Help:      "Number of connector edges added per solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{"mode"},
		),

		RouteLengthMeters: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_length_meters",
				Help:      "Total length of produced routes",
				Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000},
			},
			[]string{"mode"},
		),

		RouteOverhead: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_overhead_ratio",
				Help:      "Non-required length relative to required length",
				Buckets:   []float64{0, .05, .1, .2, .3, .5, .75, 1, 1.5, 2},
			},
			[]string{"mode"},
		),

		MatrixPairsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "matrix_pairs_total",
				Help:      "Shortest path pairs resolved, by source (computed or cached)",
			},
			[]string{"source"},
		),

		// Метрики выгрузки
		ExportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "exports_total",
				Help:      "Total number of route exports",
			},
			[]string{"format", "status"},
		),

		// Системные метрики
		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("everystreet", "")
	}
	return defaultMetrics
}

// RecordSolve записывает метрики операции решения
func (m *Metrics) RecordSolve(mode string, success bool, duration time.Duration, totalLength float64) {
	status := "success"
	if !success {
		status = "error"
	}

	m.SolveOperationsTotal.WithLabelValues(mode, status).Inc()
	m.SolveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if success {
		m.RouteLengthMeters.WithLabelValues(mode).Observe(totalLength)
	}
}

// RecordStage записывает длительность этапа конвейера
func (m *Metrics) RecordStage(stage string, duration time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordGraphSize записывает размер графа
func (m *Metrics) RecordGraphSize(operation string, nodes, edges int) {
	m.GraphNodesTotal.WithLabelValues(operation).Observe(float64(nodes))
	m.GraphEdgesTotal.WithLabelValues(operation).Observe(float64(edges))
}

// RecordSnap записывает расстояние привязки точки к вершине
func (m *Metrics) RecordSnap(strategy string, distance float64) {
	m.SnapDistance.WithLabelValues(strategy).Observe(distance)
}

// RecordConnectors записывает число соединительных рёбер
func (m *Metrics) RecordConnectors(mode string, count int) {
	m.ConnectorsAdded.WithLabelValues(mode).Observe(float64(count))
}

// RecordOverhead записывает долю лишнего пробега в маршруте
func (m *Metrics) RecordOverhead(mode string, overhead float64) {
	m.RouteOverhead.WithLabelValues(mode).Observe(overhead)
}

// RecordMatrixPairs записывает число пар кратчайших путей по источнику
func (m *Metrics) RecordMatrixPairs(source string, count int) {
	if count <= 0 {
		return
	}
	m.MatrixPairsTotal.WithLabelValues(source).Add(float64(count))
}

// RecordExport записывает результат выгрузки маршрута
func (m *Metrics) RecordExport(format string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ExportsTotal.WithLabelValues(format, status).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
