package shops

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the read-only query contract over the shop catalog.
// Every operation loads the memoized catalog implicitly and tolerates an
// empty catalog by returning empty results rather than an error.
type Service interface {
	GetByCountry(ctx context.Context, country string) ([]types.Shop, error)
	GetByCity(ctx context.Context, country, city string) ([]types.Shop, error)
	Search(ctx context.Context, query string) ([]types.Shop, error)
	AggregateByCountry(ctx context.Context) (map[string]types.CountryStats, error)
	AggregateCitiesByCountry(ctx context.Context, country string) (map[string]int, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
}

func NewServiceImpl(repository Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repository: repository,
	}
}

// GetByCountry returns catalog rows whose country matches exactly
// (case-sensitive), in catalog insertion order.
func (s *ServiceImpl) GetByCountry(ctx context.Context, country string) ([]types.Shop, error) {
	catalog, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shop catalog", "error", err)
		return nil, err
	}
	metrics.Get().ShopQueriesTotal.Add(ctx, 1)

	results := make([]types.Shop, 0)
	for _, shop := range catalog {
		if shop.Country == country {
			results = append(results, shop)
		}
	}
	return results, nil
}

// GetByCity returns rows matching both country and city exactly.
func (s *ServiceImpl) GetByCity(ctx context.Context, country, city string) ([]types.Shop, error) {
	catalog, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shop catalog", "error", err)
		return nil, err
	}
	metrics.Get().ShopQueriesTotal.Add(ctx, 1)

	results := make([]types.Shop, 0)
	for _, shop := range catalog {
		if shop.Country == country && shop.CityName == city {
			results = append(results, shop)
		}
	}
	return results, nil
}

// Search returns rows where query appears case-insensitively in at least one
// of name, city, country, business type or address. An empty query matches
// everything; callers wanting a minimum query length must enforce it
// themselves.
func (s *ServiceImpl) Search(ctx context.Context, query string) ([]types.Shop, error) {
	ctx, span := otel.Tracer("ShopService").Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	catalog, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shop catalog", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog load failed")
		return nil, err
	}
	metrics.Get().ShopQueriesTotal.Add(ctx, 1)

	lowerQuery := strings.ToLower(query)
	results := make([]types.Shop, 0)
	for _, shop := range catalog {
		if strings.Contains(strings.ToLower(shop.Name), lowerQuery) ||
			strings.Contains(strings.ToLower(shop.CityName), lowerQuery) ||
			strings.Contains(strings.ToLower(shop.Country), lowerQuery) ||
			strings.Contains(strings.ToLower(shop.BusinessType), lowerQuery) ||
			strings.Contains(strings.ToLower(shop.Address), lowerQuery) {
			results = append(results, shop)
		}
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// AggregateByCountry counts distinct cities and total shops per country. The
// map keys are exactly the distinct countries present in the catalog.
func (s *ServiceImpl) AggregateByCountry(ctx context.Context) (map[string]types.CountryStats, error) {
	ctx, span := otel.Tracer("ShopService").Start(ctx, "AggregateByCountry")
	defer span.End()

	catalog, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shop catalog", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog load failed")
		return nil, err
	}
	metrics.Get().ShopQueriesTotal.Add(ctx, 1)

	cities := make(map[string]map[string]struct{})
	shops := make(map[string]int)
	for _, shop := range catalog {
		if cities[shop.Country] == nil {
			cities[shop.Country] = make(map[string]struct{})
		}
		cities[shop.Country][shop.CityName] = struct{}{}
		shops[shop.Country]++
	}

	stats := make(map[string]types.CountryStats, len(shops))
	for country, count := range shops {
		stats[country] = types.CountryStats{
			Cities: len(cities[country]),
			Shops:  count,
		}
	}
	return stats, nil
}

// AggregateCitiesByCountry counts shops per city within one country.
func (s *ServiceImpl) AggregateCitiesByCountry(ctx context.Context, country string) (map[string]int, error) {
	catalog, err := s.repository.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load shop catalog", "error", err)
		return nil, err
	}
	metrics.Get().ShopQueriesTotal.Add(ctx, 1)

	counts := make(map[string]int)
	for _, shop := range catalog {
		if shop.Country == country {
			counts[shop.CityName]++
		}
	}
	return counts, nil
}
