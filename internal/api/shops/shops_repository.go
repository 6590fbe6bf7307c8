package shops

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sfomuseum/go-csvdict/v2"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

// ErrCatalogLoad marks a fatal catalog file problem: missing file, unreadable
// content or a header without the expected columns. Not recoverable without
// fixing the file and restarting.
var ErrCatalogLoad = errors.New("shop catalog load failed")

// requiredColumns are the header names the catalog file must carry. Optional
// columns may be absent; their fields stay zero-valued.
var requiredColumns = []string{"country", "city_name", "name", "address"}

var _ Repository = (*CSVRepository)(nil)

// Repository is the read-only catalog data access contract.
type Repository interface {
	Load(ctx context.Context) ([]types.Shop, error)
}

// CSVRepository parses the catalog CSV once and serves the identical slice to
// every caller for the life of the process. The first load is collapsed via
// singleflight so concurrent cold reads parse the file exactly once.
type CSVRepository struct {
	logger *slog.Logger
	path   string

	mu      sync.RWMutex
	catalog []types.Shop
	loaded  bool
	group   singleflight.Group
}

func NewCSVRepository(path string, logger *slog.Logger) *CSVRepository {
	return &CSVRepository{
		logger: logger,
		path:   path,
	}
}

func (r *CSVRepository) Load(ctx context.Context) ([]types.Shop, error) {
	r.mu.RLock()
	if r.loaded {
		catalog := r.catalog
		r.mu.RUnlock()
		return catalog, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do("catalog", func() (interface{}, error) {
		r.mu.RLock()
		if r.loaded {
			catalog := r.catalog
			r.mu.RUnlock()
			return catalog, nil
		}
		r.mu.RUnlock()

		start := time.Now()
		catalog, err := r.parse(ctx)
		if err != nil {
			return nil, err
		}
		metrics.Get().CatalogLoadDurationSeconds.Record(ctx, time.Since(start).Seconds())

		r.mu.Lock()
		r.catalog = catalog
		r.loaded = true
		r.mu.Unlock()

		r.logger.InfoContext(ctx, "Shop catalog loaded",
			slog.String("path", r.path),
			slog.Int("shops", len(catalog)),
			slog.Duration("took", time.Since(start)),
		)
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Shop), nil
}

func (r *CSVRepository) parse(ctx context.Context) ([]types.Shop, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCatalogLoad, err)
	}
	defer f.Close()

	// A bad header is fatal even for a file with no data rows, so it is
	// checked up front rather than on the first row.
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %s", ErrCatalogLoad, err)
	}
	columns := make(map[string]struct{}, len(header))
	for _, name := range header {
		columns[strings.TrimSpace(name)] = struct{}{}
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrCatalogLoad, col)
		}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCatalogLoad, err)
	}

	csvReader, err := csvdict.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %s", ErrCatalogLoad, err)
	}

	catalog := make([]types.Shop, 0)

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows never abort the load; partial data beats none.
			r.logger.WarnContext(ctx, "Skipping malformed catalog row", slog.Any("error", err))
			continue
		}

		catalog = append(catalog, shopFromRow(row))
	}

	return catalog, nil
}

func shopFromRow(row map[string]string) types.Shop {
	return types.Shop{
		Country:      row["country"],
		CityName:     row["city_name"],
		Name:         row["name"],
		Address:      row["address"],
		Rating:       row["rating"],
		ReviewsCount: parseCount(row["reviews_count"]),
		Phone:        row["phone"],
		Website:      row["website"],
		BusinessType: row["business_type"],
		Hours:        row["hours"],
		Latitude:     parseCoordinate(row["latitude"]),
		Longitude:    parseCoordinate(row["longitude"]),
		PlaceID:      row["place_id"],
		ScrapedAt:    row["scraped_at"],
	}
}

// parseCount coerces a reviews counter, defaulting to 0 for anything that is
// not a non-negative integer.
func parseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseCoordinate returns nil for empty or unparseable values so a missing
// coordinate is never confused with a legitimate 0.0.
func parseCoordinate(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
