package observability

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	surfaceSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapview_surface_sync_total",
			Help: "Viewport values propagated between map model and surface.",
		},
		[]string{"direction"},
	)

	echoSuppressedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mapview_echo_suppressed_total",
			Help: "Model or surface events dropped while a surface write was in flight.",
		},
	)

	layersAttachedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapview_layers_attached_total",
			Help: "Layers attached to a rendering surface, by kind.",
		},
		[]string{"kind", "mode"},
	)

	layerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mapview_layer_errors_total",
			Help: "Layer dispatch and interaction failures.",
		},
		[]string{"reason"},
	)

	descriptorCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "descriptor_cache_results_total",
			Help: "TileJSON descriptor cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"op"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	viewEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "viewevents_dropped_total",
			Help: "Viewport events dropped because the publish queue was full.",
		},
	)

	viewEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewevents_consumed_total",
			Help: "Viewport events read from Kafka by result.",
		},
		[]string{"result"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		surfaceSyncTotal,
		echoSuppressedTotal,
		layersAttachedTotal,
		layerErrorsTotal,
		descriptorCacheResults,
		cacheOpTotal,
		redisOpDurationSeconds,
		httpRequestsTotal,
		httpRequestDurationSeconds,
		viewEventsDropped,
		viewEventsConsumed,
	}
}

// Init registers the package collectors with reg. Collectors count from
// process start whether or not they are registered; registering twice is
// harmless.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return fmt.Errorf("observability: register: %w", err)
		}
	}
	return nil
}

const (
	DirModelToSurface = "model_to_surface"
	DirSurfaceToModel = "surface_to_model"
)

func IncSurfaceSync(direction string) {
	surfaceSyncTotal.WithLabelValues(direction).Inc()
}

func IncEchoSuppressed() {
	echoSuppressedTotal.Inc()
}

func IncLayerAttached(kind, mode string) {
	layersAttachedTotal.WithLabelValues(kind, mode).Inc()
}

func IncLayerError(reason string) {
	layerErrorsTotal.WithLabelValues(reason).Inc()
}

func IncDescriptorCache(tier, outcome string) {
	descriptorCacheResults.WithLabelValues(tier, outcome).Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func IncViewEventDropped() {
	viewEventsDropped.Inc()
}

func IncViewEventConsumed(result string) {
	viewEventsConsumed.WithLabelValues(result).Inc()
}

// ViewEventsDropped exposes the drop counter for assertions.
func ViewEventsDropped() prometheus.Counter { return viewEventsDropped }

// ViewEventsConsumed exposes the consumer counter for assertions.
func ViewEventsConsumed() *prometheus.CounterVec { return viewEventsConsumed }
