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

// TargetedSearch lists only the known category subfolders of a station with
// shallow, date-specific patterns instead of walking the whole tree.
type TargetedSearch struct {
	sessions SessionSource
	exec     executor
}

func NewTargetedSearch(sessions SessionSource, commandTimeout time.Duration) *TargetedSearch {
	return &TargetedSearch{
		sessions: sessions,
		exec:     executor{strategy: StrategyTargeted, timeout: commandTimeout},
	}
}

func (s *TargetedSearch) Name() string {
	return StrategyTargeted
}

type listing struct {
	subfolder string
	pattern   string
}

func imageListings(date string) []listing {
	return []listing{
		{subfolder: frames.SubfolderLoRes, pattern: "*_LoResT_" + date + "UTC*"},
		{subfolder: frames.SubfolderHiRes, pattern: "*_HiResT_" + date + "UTC*"},
	}
}

// audioListings go from narrow to broad. Audio names only carry the day of
// month, so the later patterns catch files a device named slightly off.
func audioListings(date string) []listing {
	day := date[4:]
	return []listing{
		{subfolder: frames.SubfolderWav, pattern: "*_Audio_" + day + "UTC*.wav"},
		{subfolder: frames.SubfolderWav, pattern: "*_Audio_" + day + "*"},
		{subfolder: frames.SubfolderWav, pattern: "*" + day + "*"},
	}
}

func (s *TargetedSearch) Search(ctx context.Context, st station.Station, date string, kind frames.Kind) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var listings []listing
	switch kind {
	case frames.KindImages:
		listings = imageListings(date)
	case frames.KindAudio:
		listings = audioListings(date)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	start := time.Now()
	defer func() {
		metrics.RecordSearch(StrategyTargeted, string(kind), time.Since(start))
	}()

	sess, err := s.sessions.Acquire(ctx, st)
	if err != nil {
		return nil, err
	}

	// commands run one after another on the same session
	var lines []string
	for _, l := range listings {
		// a partial listing must not pass for a complete one
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names := s.exec.run(ctx, sess, listCommand(st, l.subfolder, l.pattern))
		for _, name := range names {
			lines = append(lines, st.Join(l.subfolder, name))
		}
		if kind == frames.KindAudio && len(names) > 0 {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines = dedupe(lines)
	slog.Info("Targeted search completed",
		"station", st.Name,
		"date", date,
		"kind", kind,
		"commands", len(listings),
		"files", len(lines),
		"duration", time.Since(start))
	return lines, nil
}
