package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

const DefaultCommandTimeout = 12 * time.Second

const (
	StrategyTargeted  = "targeted"
	StrategyRecursive = "recursive"
	StrategyCatalog   = "catalog"
)

var (
	ErrInvalidDate = errors.New("date must be YYMMDD")
	ErrUnknownKind = errors.New("unknown search kind")

	datePattern = regexp.MustCompile(`^\d{6}$`)
)

type Config struct {
	Strategy       string        `mapstructure:"strategy"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// Strategy lists the remote paths of a station's files for one date.
type Strategy interface {
	Name() string
	Search(ctx context.Context, st station.Station, date string, kind frames.Kind) ([]string, error)
}

// SessionSource hands out live remote sessions; *remote.Pool implements it.
type SessionSource interface {
	Acquire(ctx context.Context, st station.Station) (remote.Session, error)
}

// New builds the configured strategy. catalog may be nil unless the catalog
// strategy is selected.
func New(cfg Config, sessions SessionSource, catalog CatalogReader) (Strategy, error) {
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	switch cfg.Strategy {
	case "", StrategyTargeted:
		return NewTargetedSearch(sessions, timeout), nil
	case StrategyRecursive:
		return NewRecursiveSearch(sessions, timeout), nil
	case StrategyCatalog:
		if catalog == nil {
			return nil, fmt.Errorf("catalog search strategy requires a catalog database")
		}
		return NewCatalogSearch(catalog), nil
	default:
		return nil, fmt.Errorf("unknown search strategy %q", cfg.Strategy)
	}
}

// ValidateDate checks a YYMMDD date. Dates end up inside remote shell
// commands, so only six digits forming a real calendar day are accepted.
func ValidateDate(date string) error {
	if !datePattern.MatchString(date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if _, err := time.Parse("060102", date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// dedupe drops repeated lines, keeping the first occurrence.
func dedupe(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
