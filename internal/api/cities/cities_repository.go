package cities

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/FACorreiaa/go-moto-shop-finder/internal/types"
)

// ErrRegistryLoad marks a missing or unreadable city registry file.
var ErrRegistryLoad = errors.New("city registry load failed")

var _ Repository = (*CSVRepository)(nil)

// Repository is the city registry data access contract. Unlike the shop
// catalog this is not memoized: the file is re-read on every call, so a
// replaced file is picked up without a restart.
type Repository interface {
	Load(ctx context.Context) ([]types.CityEntry, error)
}

type CSVRepository struct {
	logger *slog.Logger
	path   string
}

func NewCSVRepository(path string, logger *slog.Logger) *CSVRepository {
	return &CSVRepository{
		logger: logger,
		path:   path,
	}
}

// Load parses the two-column registry file. The header line is skipped by
// position, not by name. A row counts only when both fields are non-empty
// after trimming; blank lines are dropped outright.
func (r *CSVRepository) Load(ctx context.Context) ([]types.CityEntry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRegistryLoad, err)
	}
	defer f.Close()

	entries := make([]types.CityEntry, 0)
	scanner := bufio.NewScanner(f)
	line := 0

	for scanner.Scan() {
		raw := scanner.Text()
		line++
		if line == 1 {
			// Header row, never parsed as data.
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}

		parts := strings.Split(raw, ",")
		if len(parts) < 2 {
			continue
		}
		country := strings.TrimSpace(parts[0])
		city := strings.TrimSpace(parts[1])
		if country == "" || city == "" {
			continue
		}
		entries = append(entries, types.CityEntry{Country: country, City: city})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRegistryLoad, err)
	}

	r.logger.DebugContext(ctx, "City registry loaded",
		slog.String("path", r.path),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}
