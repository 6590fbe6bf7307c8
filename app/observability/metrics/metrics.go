package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	CatalogLoadDurationSeconds metric.Float64Histogram
	ShopQueriesTotal           metric.Int64Counter
	GeocodeRequestsTotal       metric.Int64Counter
	OverpassRequestsTotal      metric.Int64Counter
	SearchChainDurationSeconds metric.Float64Histogram
	SearchChainErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("MotoShopFinder")
		var err error
		m := &AppMetrics{}

		m.CatalogLoadDurationSeconds, err = meter.Float64Histogram(
			"catalog_load_duration_seconds",
			metric.WithDescription("Duration of the one-time shop catalog parse in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create catalog_load_duration_seconds: %v", err)
		}

		m.ShopQueriesTotal, err = meter.Int64Counter(
			"shop_queries_total",
			metric.WithDescription("Total number of shop catalog queries served"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create shop_queries_total: %v", err)
		}

		m.GeocodeRequestsTotal, err = meter.Int64Counter(
			"geocode_requests_total",
			metric.WithDescription("Total number of outbound Nominatim requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_requests_total: %v", err)
		}

		m.OverpassRequestsTotal, err = meter.Int64Counter(
			"overpass_requests_total",
			metric.WithDescription("Total number of outbound Overpass requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create overpass_requests_total: %v", err)
		}

		m.SearchChainDurationSeconds, err = meter.Float64Histogram(
			"search_chain_duration_seconds",
			metric.WithDescription("End-to-end duration of the geocode+overpass search chain"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_chain_duration_seconds: %v", err)
		}

		m.SearchChainErrorsTotal, err = meter.Int64Counter(
			"search_chain_errors_total",
			metric.WithDescription("Total number of search chain invocations ending in an error outcome"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_chain_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance. If
// InitAppMetrics was not called yet the instruments are created against the
// global (possibly no-op) MeterProvider, which keeps tests free of setup.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
