package locationsearch

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the two-hop live search: geocode the city, wait out the
// politeness delay, then query Overpass around the resolved center. The
// chain always returns a SearchOutcome; no error crosses this boundary.
type Service interface {
	SearchCity(ctx context.Context, country, city string, radiusM, limit int) types.SearchOutcome
}

type ServiceImpl struct {
	logger          *slog.Logger
	geocoder        GeocodeClient
	pois            POIClient
	politenessDelay time.Duration
}

func NewServiceImpl(geocoder GeocodeClient, pois POIClient, politenessDelay time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:          logger,
		geocoder:        geocoder,
		pois:            pois,
		politenessDelay: politenessDelay,
	}
}

// SearchCity expects country and city non-empty and radiusM/limit positive;
// the handler validates both before calling.
func (s *ServiceImpl) SearchCity(ctx context.Context, country, city string, radiusM, limit int) types.SearchOutcome {
	ctx, span := otel.Tracer("LocationSearchService").Start(ctx, "SearchCity")
	defer span.End()
	span.SetAttributes(
		attribute.String("country", country),
		attribute.String("city", city),
		attribute.Int("radius_m", radiusM),
		attribute.Int("limit", limit),
	)

	invocationID := uuid.New().String()
	l := s.logger.With(
		slog.String("invocation_id", invocationID),
		slog.String("country", country),
		slog.String("city", city),
	)
	start := time.Now()
	defer func() {
		metrics.Get().SearchChainDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	fail := func(message string) types.SearchOutcome {
		metrics.Get().SearchChainErrorsTotal.Add(ctx, 1)
		span.SetStatus(codes.Error, message)
		return types.SearchOutcome{
			Country: country,
			City:    city,
			Count:   0,
			POIs:    []types.PointOfInterest{},
			Error:   message,
		}
	}

	geocoded, err := s.geocoder.Geocode(ctx, city, country)
	if err != nil {
		l.WarnContext(ctx, "Geocode step failed", slog.Any("error", err))
		span.RecordError(err)
		return fail(err.Error())
	}
	if geocoded == nil {
		// Zero candidates is a terminal outcome, not a fault; Overpass is
		// never consulted for an unresolvable city.
		l.InfoContext(ctx, "Geocode returned no candidates")
		return fail("geocode_failed")
	}

	lat, latErr := strconv.ParseFloat(geocoded.Lat, 64)
	lon, lonErr := strconv.ParseFloat(geocoded.Lon, 64)
	if latErr != nil || lonErr != nil {
		l.WarnContext(ctx, "Geocoder returned unparseable coordinates",
			slog.String("lat", geocoded.Lat),
			slog.String("lon", geocoded.Lon),
		)
		return fail("invalid coordinates from geocoder")
	}

	// Nominatim's rate policy: one request per second. The delay is
	// unconditional after every successful geocode and suspends only this
	// invocation, never the process.
	select {
	case <-time.After(s.politenessDelay):
	case <-ctx.Done():
		l.WarnContext(ctx, "Search cancelled during politeness delay", slog.Any("error", ctx.Err()))
		return fail(ctx.Err().Error())
	}

	center := orb.Point{lon, lat}
	pois, err := s.pois.NearbyRepairShops(ctx, center, radiusM, limit)
	if err != nil {
		l.WarnContext(ctx, "Overpass step failed", slog.Any("error", err))
		span.RecordError(err)
		return fail(err.Error())
	}

	l.InfoContext(ctx, "Search chain completed",
		slog.Int("pois", len(pois)),
		slog.Duration("took", time.Since(start)),
	)
	span.SetStatus(codes.Ok, "Search completed")
	return types.SearchOutcome{
		Country: country,
		City:    city,
		Lat:     &lat,
		Lon:     &lon,
		Count:   len(pois),
		POIs:    pois,
	}
}
