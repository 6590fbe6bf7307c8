package locationsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 10 * time.Millisecond

// chainFixture wires a real chain against two httptest remote services.
type chainFixture struct {
	service       *ServiceImpl
	overpassCalls *atomic.Int64
}

func newChainFixture(t *testing.T, nominatim, overpass http.HandlerFunc) chainFixture {
	t.Helper()

	var overpassCalls atomic.Int64

	nominatimServer := httptest.NewServer(nominatim)
	t.Cleanup(nominatimServer.Close)

	overpassServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		overpassCalls.Add(1)
		overpass(w, r)
	}))
	t.Cleanup(overpassServer.Close)

	logger := slog.Default()
	geocoder := NewNominatimClient(nominatimServer.URL, "test-agent/1.0", nominatimServer.Client(), logger)
	pois := NewOverpassClient(overpassServer.URL, "test-agent/1.0", overpassServer.Client(), logger)

	return chainFixture{
		service:       NewServiceImpl(geocoder, pois, testDelay, logger),
		overpassCalls: &overpassCalls,
	}
}

func geocodeHit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `[{"lat":"48.85","lon":"2.35","display_name":"Paris, France"}]`)
}

func overpassElements(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		elements := make([]map[string]interface{}, 0, n)
		for i := 0; i < n; i++ {
			elements = append(elements, map[string]interface{}{
				"id":   i + 1,
				"type": "node",
				"lat":  48.85 + float64(i)*0.001,
				"lon":  2.35,
				"tags": map[string]string{"shop": "motorcycle"},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"elements": elements})
	}
}

func TestSearchCity(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		fixture := newChainFixture(t, geocodeHit, func(w http.ResponseWriter, r *http.Request) {
			assert.NoError(t, r.ParseForm())
			query := r.PostForm.Get("data")
			assert.Contains(t, query, `shop~"motorcycle|car_repair|garage|bicycle",i`)
			assert.Contains(t, query, `name~"motorcycle|moto|motorbike|motorrad|mc",i`)
			assert.Contains(t, query, "around:5000")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"elements":[
				{"id":1,"type":"node","lat":48.851,"lon":2.351,"tags":{"shop":"motorcycle"}},
				{"id":2,"type":"way","center":{"lat":48.852,"lon":2.352},"tags":{"name":"Moto Atelier"}},
				{"id":3,"type":"node","lat":48.853,"lon":2.353,"tags":{"shop":"garage"}}
			]}`)
		})

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 5000, 50)

		assert.Empty(t, outcome.Error)
		assert.Equal(t, "France", outcome.Country)
		assert.Equal(t, "Paris", outcome.City)
		require.NotNil(t, outcome.Lat)
		assert.InDelta(t, 48.85, *outcome.Lat, 0.0001)
		assert.Equal(t, 3, outcome.Count)
		require.Len(t, outcome.POIs, 3)
		for _, poi := range outcome.POIs {
			require.NotNil(t, poi.Lat, "poi %d has no normalized latitude", poi.ID)
			require.NotNil(t, poi.Lon, "poi %d has no normalized longitude", poi.ID)
			require.NotNil(t, poi.DistanceM)
		}
		// The way result got its coordinates from the center fallback
		assert.InDelta(t, 48.852, *outcome.POIs[1].Lat, 0.0001)
	})

	t.Run("GeocodeEmptySkipsOverpass", func(t *testing.T) {
		fixture := newChainFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[]`)
		}, overpassElements(3))

		outcome := fixture.service.SearchCity(ctx, "France", "Nowhereville", 10000, 50)

		assert.Equal(t, "geocode_failed", outcome.Error)
		assert.Equal(t, 0, outcome.Count)
		assert.NotNil(t, outcome.POIs)
		assert.Empty(t, outcome.POIs)
		assert.Nil(t, outcome.Lat)
		assert.EqualValues(t, 0, fixture.overpassCalls.Load(), "Overpass must not be consulted")
	})

	t.Run("GeocodeServerErrorBecomesOutcome", func(t *testing.T) {
		fixture := newChainFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, overpassElements(3))

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 50)

		assert.Contains(t, outcome.Error, "status 503")
		assert.Equal(t, 0, outcome.Count)
		assert.Empty(t, outcome.POIs)
		assert.EqualValues(t, 0, fixture.overpassCalls.Load())
	})

	t.Run("OverpassFailureBecomesOutcome", func(t *testing.T) {
		fixture := newChainFixture(t, geocodeHit, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 50)

		assert.NotEmpty(t, outcome.Error)
		assert.Equal(t, 0, outcome.Count)
		assert.Empty(t, outcome.POIs)
	})

	t.Run("LimitEnforcedClientSide", func(t *testing.T) {
		fixture := newChainFixture(t, geocodeHit, overpassElements(80))

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 10)

		assert.Empty(t, outcome.Error)
		assert.Equal(t, 10, outcome.Count)
		assert.Len(t, outcome.POIs, 10)
	})

	t.Run("MalformedGeocodePayloadBecomesOutcome", func(t *testing.T) {
		fixture := newChainFixture(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"not":"an array"}`)
		}, overpassElements(1))

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 50)

		assert.NotEmpty(t, outcome.Error)
		assert.EqualValues(t, 0, fixture.overpassCalls.Load())
	})

	t.Run("UnparseableCoordinatesBecomeOutcome", func(t *testing.T) {
		fixture := newChainFixture(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"lat":"not-a-number","lon":"2.35"}]`)
		}, overpassElements(1))

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 50)

		assert.Equal(t, "invalid coordinates from geocoder", outcome.Error)
		assert.EqualValues(t, 0, fixture.overpassCalls.Load())
	})

	t.Run("CancellationDuringDelay", func(t *testing.T) {
		fixture := newChainFixture(t, geocodeHit, overpassElements(1))
		fixture.service.politenessDelay = 5 * time.Second

		cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		outcome := fixture.service.SearchCity(cancelCtx, "France", "Paris", 10000, 50)

		assert.NotEmpty(t, outcome.Error)
		assert.Less(t, time.Since(start), time.Second, "cancellation must cut the delay short")
		assert.EqualValues(t, 0, fixture.overpassCalls.Load())
	})

	t.Run("SetsUserAgentOnGeocodeRequest", func(t *testing.T) {
		var seenAgent atomic.Value
		fixture := newChainFixture(t, func(w http.ResponseWriter, r *http.Request) {
			seenAgent.Store(r.Header.Get("User-Agent"))
			geocodeHit(w, r)
		}, overpassElements(1))

		outcome := fixture.service.SearchCity(ctx, "France", "Paris", 10000, 50)

		assert.Empty(t, outcome.Error)
		assert.Equal(t, "test-agent/1.0", seenAgent.Load())
	})
}
