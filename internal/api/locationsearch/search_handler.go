package locationsearch

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/api"
)

type Handler struct {
	logger        *slog.Logger
	service       Service
	defaultRadius int
	defaultLimit  int
}

func NewSearchHandler(service Service, defaultRadius, defaultLimit int, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		defaultRadius: defaultRadius,
		defaultLimit:  defaultLimit,
	}
}

// SearchRequest is the POST body for a live search. Radius and Limit are
// pointers so an explicit zero is rejected rather than silently replaced by
// the defaults.
type SearchRequest struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Radius  *int   `json:"radius,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// SearchGet handles GET /search?country=&city=[&radius=&limit=].
func (h *Handler) SearchGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SearchHandler").Start(r.Context(), "SearchGet")
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchGet"))

	country := r.URL.Query().Get("country")
	city := r.URL.Query().Get("city")

	radius, err := positiveIntParam(r.URL.Query().Get("radius"), h.defaultRadius)
	if err != nil {
		l.WarnContext(ctx, "Invalid radius parameter")
		span.SetStatus(codes.Error, "Invalid radius")
		api.ErrorResponse(w, r, http.StatusBadRequest, "radius must be a positive integer")
		return
	}
	limit, err := positiveIntParam(r.URL.Query().Get("limit"), h.defaultLimit)
	if err != nil {
		l.WarnContext(ctx, "Invalid limit parameter")
		span.SetStatus(codes.Error, "Invalid limit")
		api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	h.search(ctx, w, r, l, span, country, city, radius, limit)
}

// SearchPost handles POST /search with a JSON body.
func (h *Handler) SearchPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SearchHandler").Start(r.Context(), "SearchPost")
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchPost"))

	var req SearchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid search request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	radius := h.defaultRadius
	if req.Radius != nil {
		if *req.Radius <= 0 {
			l.WarnContext(ctx, "Invalid radius in body")
			span.SetStatus(codes.Error, "Invalid radius")
			api.ErrorResponse(w, r, http.StatusBadRequest, "radius must be a positive integer")
			return
		}
		radius = *req.Radius
	}
	limit := h.defaultLimit
	if req.Limit != nil {
		if *req.Limit <= 0 {
			l.WarnContext(ctx, "Invalid limit in body")
			span.SetStatus(codes.Error, "Invalid limit")
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = *req.Limit
	}

	h.search(ctx, w, r, l, span, req.Country, req.City, radius, limit)
}

func (h *Handler) search(ctx context.Context, w http.ResponseWriter, r *http.Request, l *slog.Logger, span trace.Span, country, city string, radius, limit int) {
	if country == "" || city == "" {
		l.WarnContext(ctx, "Missing country or city")
		span.SetStatus(codes.Error, "Missing country or city")
		api.ErrorResponse(w, r, http.StatusBadRequest, "country and city required")
		return
	}

	// Downstream failures come back as error outcomes with HTTP 200; the
	// chain never raises past its own boundary.
	outcome := h.service.SearchCity(ctx, country, city, radius, limit)
	api.WriteJSONResponse(w, r, http.StatusOK, outcome)
}

func positiveIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
