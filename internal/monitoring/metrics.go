package monitoring

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskpilot"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Domain metrics
var (
	ProjectsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "projects",
			Name:      "created_total",
			Help:      "Total projects created",
		},
	)

	TaskWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "writes_total",
			Help:      "Task writes by operation and result",
		},
		[]string{"operation", "result"}, // create|update, ok|conflict|error
	)

	FilesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "uploaded_total",
			Help:      "Total files uploaded to projects",
		},
	)

	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI prompt calls by flow and result",
		},
		[]string{"flow", "result"},
	)
)

var startTime = time.Now()

var cacheGaugeOnce sync.Once

// RegisterCacheHitRate exposes the view cache hit rate as a gauge. Only
// the first call registers.
func RegisterCacheHitRate(hitRate func() float64) {
	cacheGaugeOnce.Do(func() {
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hit_rate",
				Help:      "Percentage of view cache reads served from cache",
			},
			hitRate,
		)
	})
}

// QueueSizer reports how many jobs wait in a queue.
type QueueSizer func(ctx context.Context, queue string) (int64, error)

var queueDepthDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "worker", "queue_depth"),
	"Jobs waiting in each worker queue",
	[]string{"queue"}, nil,
)

type queueDepthCollector struct {
	queues []string
	size   QueueSizer
}

func (c queueDepthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueDepthDesc
}

func (c queueDepthCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, queue := range c.queues {
		n, err := c.size(ctx, queue)
		if err != nil {
			log.Printf("metrics: failed to read size of queue %s: %v", queue, err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(queueDepthDesc, prometheus.GaugeValue, float64(n), queue)
	}
}

// RegisterQueueDepth exposes the size of each queue, read at scrape time.
// A later call replaces the earlier source.
func RegisterQueueDepth(queues []string, size QueueSizer) {
	collector := queueDepthCollector{queues: queues, size: size}
	err := prometheus.Register(collector)

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		prometheus.Unregister(already.ExistingCollector)
		err = prometheus.Register(collector)
	}
	if err != nil {
		log.Printf("metrics: failed to register queue depth: %v", err)
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()

		c.Next()

		HTTPRequestsInFlight.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// ResultLabel maps an error to the result label used by the write counters.
func ResultLabel(err error, conflict error) string {
	switch {
	case err == nil:
		return "ok"
	case conflict != nil && errors.Is(err, conflict):
		return "conflict"
	default:
		return "error"
	}
}
