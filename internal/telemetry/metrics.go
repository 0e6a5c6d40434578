package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the feed service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// feed specific
	PostsCreatedTotal metric.Int64Counter
	PostsDeletedTotal metric.Int64Counter
	FeedRequestsTotal metric.Int64Counter
	UploadBytesTotal  metric.Int64Counter
	// middlewares
	AuthWorkDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	postsCreatedTotal, err := meter.Int64Counter(
		"posts_created",
		metric.WithDescription("Total number of posts created"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_created: %w", err)
	}

	postsDeletedTotal, err := meter.Int64Counter(
		"posts_deleted",
		metric.WithDescription("Total number of posts deleted"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_deleted: %w", err)
	}

	feedRequestsTotal, err := meter.Int64Counter(
		"feed_requests",
		metric.WithDescription("Total number of feed listings served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed_requests: %w", err)
	}

	uploadBytesTotal, err := meter.Int64Counter(
		"upload_bytes",
		metric.WithDescription("Total bytes accepted for media uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_bytes: %w", err)
	}

	authWorkDuration, err := meter.Float64Histogram(
		"auth_work_duration",
		metric.WithDescription("real time spent on DB/Bcrypt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_work_duration: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,
		PostsCreatedTotal:   postsCreatedTotal,
		PostsDeletedTotal:   postsDeletedTotal,
		FeedRequestsTotal:   feedRequestsTotal,
		UploadBytesTotal:    uploadBytesTotal,
		AuthWorkDuration:    authWorkDuration,
	}, nil
}
