package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

// RecursiveSearch walks the whole station tree with a single recursive
// listing. It is much slower over station links than TargetedSearch.
type RecursiveSearch struct {
	sessions SessionSource
	exec     executor
}

func NewRecursiveSearch(sessions SessionSource, commandTimeout time.Duration) *RecursiveSearch {
	return &RecursiveSearch{
		sessions: sessions,
		exec:     executor{strategy: StrategyRecursive, timeout: commandTimeout},
	}
}

func (s *RecursiveSearch) Name() string {
	return StrategyRecursive
}

func (s *RecursiveSearch) Search(ctx context.Context, st station.Station, date string, kind frames.Kind) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var pattern string
	switch kind {
	case frames.KindImages:
		pattern = "*_" + date + "UTC*"
	case frames.KindAudio:
		pattern = "*_Audio_" + date[4:] + "UTC*"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	start := time.Now()
	defer func() {
		metrics.RecordSearch(StrategyRecursive, string(kind), time.Since(start))
	}()

	sess, err := s.sessions.Acquire(ctx, st)
	if err != nil {
		return nil, err
	}

	lines := dedupe(s.exec.run(ctx, sess, recursiveCommand(st, pattern)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Info("Recursive search completed",
		"station", st.Name,
		"date", date,
		"kind", kind,
		"files", len(lines),
		"duration", time.Since(start))
	return lines, nil
}
