package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one catalogued station file. Key is relative to the station root
// and uses forward slashes, e.g. "LoRes/G1_LoResT_250411UTC0700.jpg".
type Entry struct {
	Station    string
	Resolution string
	Timestamp  time.Time
	Key        string
}

// Store reads and writes the frames table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const insertFrame = `
INSERT INTO frames (station, resolution, timestamp, key)
VALUES ($1, $2, $3, $4)
ON CONFLICT (station, resolution, timestamp) DO NOTHING`

// Upsert inserts entries in batches, skipping ones already present. It
// returns how many rows were new.
func (s *Store) Upsert(ctx context.Context, entries []Entry) (int, error) {
	const batchSize = 500

	inserted := 0
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))

		batch := &pgx.Batch{}
		for _, e := range entries[start:end] {
			batch.Queue(insertFrame, e.Station, e.Resolution, e.Timestamp.UTC(), e.Key)
		}

		results := s.pool.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return inserted, fmt.Errorf("insert %s: %w", entries[i].Key, err)
			}
			inserted += int(tag.RowsAffected())
		}
		if err := results.Close(); err != nil {
			return inserted, fmt.Errorf("close batch: %w", err)
		}
	}
	return inserted, nil
}

const selectKeys = `
SELECT key FROM frames
WHERE station = $1
  AND resolution = ANY($2)
  AND timestamp >= $3
  AND timestamp < $4
ORDER BY timestamp DESC, key`

// Keys returns catalogued keys of a station within [from, to), newest first.
func (s *Store) Keys(ctx context.Context, station string, resolutions []string, from, to time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, selectKeys, station, resolutions, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan frames: %w", err)
	}
	return keys, nil
}
