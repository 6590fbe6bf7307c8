package shops

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/api"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewShopsHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// GetShops handles GET /shops - selects by free-text query, or by country
// with an optional city. At least one selector is required.
func (h *Handler) GetShops(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ShopsHandler").Start(r.Context(), "GetShops")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetShops"))

	query := r.URL.Query().Get("query")
	country := r.URL.Query().Get("country")
	city := r.URL.Query().Get("city")

	var (
		results []types.Shop
		err     error
	)
	switch {
	case query != "":
		results, err = h.service.Search(ctx, query)
	case country != "" && city != "":
		results, err = h.service.GetByCity(ctx, country, city)
	case country != "":
		results, err = h.service.GetByCountry(ctx, country)
	default:
		l.WarnContext(ctx, "Missing shop selector parameters")
		span.SetStatus(codes.Error, "Missing selector")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing required parameters: query, country, or city")
		return
	}

	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch shops", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch shops")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.ShopListResponse{
		Results: results,
		Count:   len(results),
	})
	l.InfoContext(ctx, "Shops returned", slog.Int("count", len(results)))
}

// GetCountries handles GET /countries - per-country city and shop counts.
func (h *Handler) GetCountries(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ShopsHandler").Start(r.Context(), "GetCountries")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetCountries"))

	stats, err := h.service.AggregateByCountry(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to aggregate countries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service operation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load countries")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, stats)
	l.InfoContext(ctx, "Countries returned", slog.Int("count", len(stats)))
}
