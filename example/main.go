// Minimal example wiring a resilient analytics client with zap logging and
// Prometheus metrics, then fetching a few resources and printing the derived
// health status.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pandugo/pandugo"
)

func main() {
	apiKey := os.Getenv("PENDO_API_KEY")
	if apiKey == "" {
		log.Fatal("PENDO_API_KEY is required")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()

	client, err := pandugo.New(apiKey,
		pandugo.WithRateLimit(10, 20),
		pandugo.WithMaxAttempts(3),
		pandugo.WithCacheTTL(5*time.Minute, 2*time.Minute),
		pandugo.WithCircuitBreaker(pandugo.CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: 30 * time.Second}),
		pandugo.WithZapLogger(logger),
		pandugo.WithDebug(),
		pandugo.WithPrometheusRegistry(registry),
		pandugo.WithMiddleware(func(req *http.Request, next pandugo.RoundTripper) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			logger.Sugar().Debugw("upstream call", "url", req.URL.Path, "took", time.Since(start))
			return resp, err
		}),
	)
	if err != nil {
		log.Fatalf("client config: %v", err)
	}

	// Expose the client's Prometheus metrics.
	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		_ = http.ListenAndServe(":9091", nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	guides, err := client.GetGuides(ctx, pandugo.ListParams{Limit: 10})
	if err != nil {
		log.Fatalf("guides: %v", err)
	}
	fmt.Printf("fetched %d guides\n", len(guides))

	rows, err := client.GetAggregationData(ctx, pandugo.AggregationRequest{
		Name: "feature-usage-7d",
		Pipeline: []pandugo.PipelineStage{
			{"source": map[string]any{"featureEvents": map[string]any{"featureId": "*"}}},
			{"timeSeries": map[string]any{"period": "dayRange", "first": "now()-7*24*60*60*1000", "count": 7}},
			{"group": map[string]any{"group": []string{"featureId"}, "fields": map[string]any{"events": map[string]any{"sum": "numEvents"}}}},
			{"sort": []string{"-events"}},
		},
	})
	if err != nil {
		log.Printf("aggregation: %v", err)
	} else {
		fmt.Printf("aggregation returned %d rows\n", len(rows))
	}

	health := client.GetHealthStatus()
	fmt.Printf("health: %s (breaker %s, success rate %.2f, avg latency %v, tokens %.1f)\n",
		health.Status, health.CircuitBreakerState, health.SuccessRate,
		health.AverageResponseTime, health.AvailableTokens)

	metrics := client.GetMetrics()
	fmt.Printf("requests: %d total, %d ok, %d failed\n",
		metrics.TotalRequests, metrics.SuccessfulRequests, metrics.FailedRequests)
}
