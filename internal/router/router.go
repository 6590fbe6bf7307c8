// internal/router/router.go
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/cities"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/locationsearch"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/shops"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ShopsHandler  *shops.Handler
	CitiesHandler *cities.Handler
	SearchHandler *locationsearch.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cities", cfg.CitiesHandler.GetCities)
		r.Get("/countries", cfg.ShopsHandler.GetCountries)
		r.Get("/shops", cfg.ShopsHandler.GetShops)
		r.Get("/search", cfg.SearchHandler.SearchGet)
		r.Post("/search", cfg.SearchHandler.SearchPost)
	})

	return r
}
