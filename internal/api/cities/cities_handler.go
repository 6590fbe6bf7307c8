package cities

import (
	"log/slog"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/api"
)

type Handler struct {
	logger     *slog.Logger
	repository Repository
}

func NewCitiesHandler(repository Repository, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		repository: repository,
	}
}

// GetCities handles GET /cities - cities grouped by country, both levels
// deduplicated and sorted lexicographically.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CitiesHandler").Start(r.Context(), "GetCities")
	defer span.End()

	l := h.logger.With(slog.String("method", "GetCities"))

	entries, err := h.repository.Load(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load city registry", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registry load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to load cities")
		return
	}

	seen := make(map[string]map[string]struct{})
	for _, entry := range entries {
		if seen[entry.Country] == nil {
			seen[entry.Country] = make(map[string]struct{})
		}
		seen[entry.Country][entry.City] = struct{}{}
	}

	grouped := make(map[string][]string, len(seen))
	for country, citySet := range seen {
		cityNames := make([]string, 0, len(citySet))
		for city := range citySet {
			cityNames = append(cityNames, city)
		}
		sort.Strings(cityNames)
		grouped[country] = cityNames
	}

	// json.Marshal emits map keys in sorted order, which covers the
	// country-level sorting contract.
	api.WriteJSONResponse(w, r, http.StatusOK, grouped)
	l.InfoContext(ctx, "Cities returned", slog.Int("countries", len(grouped)))
}
