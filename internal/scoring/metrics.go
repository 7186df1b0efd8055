package scoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"uni-wizard/internal/domain"
)

var (
	scoringRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of calls to the recommendation scoring service",
		},
		[]string{"operation", "outcome"}, // operation: list_clusters/recommend, outcome: success/failure
	)

	scoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_request_duration_seconds",
			Help:    "Time spent waiting for the recommendation scoring service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// InstrumentedClient registra conteo y latencia de cada llamada al servicio.
type InstrumentedClient struct {
	inner Client
}

func NewInstrumentedClient(inner Client) *InstrumentedClient {
	return &InstrumentedClient{inner: inner}
}

func (c *InstrumentedClient) ListClusters(ctx context.Context, countryCode string) ([]domain.ClusterOption, error) {
	start := time.Now()
	out, err := c.inner.ListClusters(ctx, countryCode)
	observe("list_clusters", start, err)
	return out, err
}

func (c *InstrumentedClient) Recommend(ctx context.Context, req RecommendRequest) (RecommendResponse, error) {
	start := time.Now()
	out, err := c.inner.Recommend(ctx, req)
	observe("recommend", start, err)
	return out, err
}

func observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	scoringRequests.WithLabelValues(operation, outcome).Inc()
	scoringDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
