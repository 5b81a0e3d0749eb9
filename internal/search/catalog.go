package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

// CatalogReader returns station-relative keys ("LoRes/<file>") recorded by the
// ingest scanner within [from, to).
type CatalogReader interface {
	Keys(ctx context.Context, station string, resolutions []string, from, to time.Time) ([]string, error)
}

// CatalogSearch answers from the pre-scanned catalog instead of the station
// host. Keys are mapped back to remote paths so the normalizer treats both
// sources alike.
type CatalogSearch struct {
	catalog CatalogReader
}

func NewCatalogSearch(catalog CatalogReader) *CatalogSearch {
	return &CatalogSearch{catalog: catalog}
}

func (s *CatalogSearch) Name() string {
	return StrategyCatalog
}

func (s *CatalogSearch) Search(ctx context.Context, st station.Station, date string, kind frames.Kind) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var resolutions []string
	switch kind {
	case frames.KindImages:
		resolutions = []string{frames.SubfolderLoRes, frames.SubfolderHiRes}
	case frames.KindAudio:
		resolutions = []string{frames.SubfolderWav}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	start := time.Now()
	defer func() {
		metrics.RecordSearch(StrategyCatalog, string(kind), time.Since(start))
	}()

	from, _ := time.ParseInLocation("060102", date, time.UTC)
	keys, err := s.catalog.Keys(ctx, st.Name, resolutions, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("catalog lookup for %s: %w", st.Name, err)
	}

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, st.Join(strings.Split(key, "/")...))
	}
	return dedupe(lines), nil
}
