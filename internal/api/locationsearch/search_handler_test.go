package locationsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) SearchCity(ctx context.Context, country, city string, radiusM, limit int) types.SearchOutcome {
	args := m.Called(ctx, country, city, radiusM, limit)
	return args.Get(0).(types.SearchOutcome)
}

func TestSearchGetHandler(t *testing.T) {
	t.Run("MissingCountryReturns400", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		req := httptest.NewRequest(http.MethodGet, "/search?city=Paris", nil)
		w := httptest.NewRecorder()

		handler.SearchGet(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})

	t.Run("InvalidRadiusReturns400", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		req := httptest.NewRequest(http.MethodGet, "/search?country=France&city=Paris&radius=abc", nil)
		w := httptest.NewRecorder()

		handler.SearchGet(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})

	t.Run("DefaultsAppliedWhenOmitted", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		mockService.On("SearchCity", mock.Anything, "France", "Paris", 10000, 50).
			Return(types.SearchOutcome{Country: "France", City: "Paris", Count: 0, POIs: []types.PointOfInterest{}}).Once()

		req := httptest.NewRequest(http.MethodGet, "/search?country=France&city=Paris", nil)
		w := httptest.NewRecorder()

		handler.SearchGet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ErrorOutcomeStillReturns200", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		mockService.On("SearchCity", mock.Anything, "France", "Paris", 5000, 10).
			Return(types.SearchOutcome{
				Country: "France", City: "Paris", Count: 0,
				POIs: []types.PointOfInterest{}, Error: "geocode_failed",
			}).Once()

		req := httptest.NewRequest(http.MethodGet, "/search?country=France&city=Paris&radius=5000&limit=10", nil)
		w := httptest.NewRecorder()

		handler.SearchGet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var outcome types.SearchOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.Equal(t, "geocode_failed", outcome.Error)
		assert.Equal(t, 0, outcome.Count)
		mockService.AssertExpectations(t)
	})
}

func TestSearchPostHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		lat, lon := 48.85, 2.35
		mockService.On("SearchCity", mock.Anything, "France", "Paris", 5000, 20).
			Return(types.SearchOutcome{
				Country: "France", City: "Paris", Lat: &lat, Lon: &lon, Count: 1,
				POIs: []types.PointOfInterest{{ID: 1, Kind: "node", Tags: map[string]string{"shop": "motorcycle"}}},
			}).Once()

		body := []byte(`{"country":"France","city":"Paris","radius":5000,"limit":20}`)
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var outcome types.SearchOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.Equal(t, 1, outcome.Count)
		require.Len(t, outcome.POIs, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("DefaultsAppliedWhenOmitted", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		mockService.On("SearchCity", mock.Anything, "France", "Paris", 10000, 50).
			Return(types.SearchOutcome{Country: "France", City: "Paris", Count: 0, POIs: []types.PointOfInterest{}}).Once()

		body := []byte(`{"country":"France","city":"Paris"}`)
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ExplicitZeroRadiusReturns400", func(t *testing.T) {
		// An explicit zero is rejected on POST just like on GET, never
		// swapped for the default.
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		body := []byte(`{"country":"France","city":"Paris","radius":0}`)
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})

	t.Run("ExplicitZeroLimitReturns400", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		body := []byte(`{"country":"France","city":"Paris","limit":0}`)
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})

	t.Run("MissingCityReturns400", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		body := []byte(`{"country":"France"}`)
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})

	t.Run("MalformedBodyReturns400", func(t *testing.T) {
		mockService := new(MockService)
		handler := NewSearchHandler(mockService, 10000, 50, slog.Default())

		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"country":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		handler.SearchPost(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "SearchCity")
	})
}
