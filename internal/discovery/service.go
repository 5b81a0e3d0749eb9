package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/cache"
	"github.com/cassandra-vlf/cassandra/internal/frames"
	"github.com/cassandra-vlf/cassandra/internal/search"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

const (
	DefaultFramesTTL = 5 * time.Minute
	DefaultWavsTTL   = 15 * time.Minute
)

type CacheConfig struct {
	FramesTTL time.Duration `mapstructure:"frames_ttl"`
	WavsTTL   time.Duration `mapstructure:"wavs_ttl"`
}

// Sessions is the part of the session pool the service reports on and clears.
type Sessions interface {
	Keys() []string
	Clear() int
}

// Service answers "which files does station X have on date Y", going to the
// station only when the cached answer is missing or stale.
type Service struct {
	registry       *station.Registry
	defaultStation string
	strategy       search.Strategy
	normalizer     *frames.Normalizer
	sessions       Sessions
	frameCache     *cache.Cache[frames.Frame]
	wavCache       *cache.Cache[frames.Wav]
}

type Option func(*options)

type options struct {
	defaultStation string
	cacheOpts      []cache.Option
}

// WithDefaultStation sets the station used when a request names none.
func WithDefaultStation(name string) Option {
	return func(o *options) {
		o.defaultStation = name
	}
}

// WithCacheOptions passes options through to both result caches.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

func NewService(
	registry *station.Registry,
	strategy search.Strategy,
	normalizer *frames.Normalizer,
	sessions Sessions,
	cfg CacheConfig,
	opts ...Option,
) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.defaultStation == "" {
		o.defaultStation, _ = registry.Default()
	} else if _, err := registry.Lookup(o.defaultStation); err != nil {
		return nil, fmt.Errorf("default station: %w", err)
	}

	if cfg.FramesTTL <= 0 {
		cfg.FramesTTL = DefaultFramesTTL
	}
	if cfg.WavsTTL <= 0 {
		cfg.WavsTTL = DefaultWavsTTL
	}

	return &Service{
		registry:       registry,
		defaultStation: o.defaultStation,
		strategy:       strategy,
		normalizer:     normalizer,
		sessions:       sessions,
		frameCache:     cache.New[frames.Frame](string(frames.KindImages), cfg.FramesTTL, o.cacheOpts...),
		wavCache:       cache.New[frames.Wav](string(frames.KindAudio), cfg.WavsTTL, o.cacheOpts...),
	}, nil
}

// Stations lists configured station names in registry order.
func (s *Service) Stations() []string {
	return s.registry.Names()
}

func (s *Service) DefaultStation() string {
	return s.defaultStation
}

// resolve finds the station and checks the request before any remote work.
// An incomplete station fails here and never reaches the session pool.
func (s *Service) resolve(name, date string) (station.Station, error) {
	if name == "" {
		name = s.defaultStation
	}
	st, err := s.registry.Lookup(name)
	if err != nil {
		return station.Station{}, err
	}
	if err := search.ValidateDate(date); err != nil {
		return station.Station{}, err
	}
	if err := st.Validate(); err != nil {
		return station.Station{}, err
	}
	return st, nil
}

// Frames returns the spectrogram images of a station for a YYMMDD date,
// newest first.
func (s *Service) Frames(ctx context.Context, name, date string) ([]frames.Frame, error) {
	st, err := s.resolve(name, date)
	if err != nil {
		return nil, err
	}

	key := cache.Key{Station: st.Name, Date: date, Kind: string(frames.KindImages)}
	return s.frameCache.GetOrCompute(ctx, key, func(ctx context.Context) ([]frames.Frame, error) {
		lines, err := s.strategy.Search(ctx, st, date, frames.KindImages)
		if err != nil {
			return nil, fmt.Errorf("search %s images for %s: %w", st.Name, date, err)
		}
		out := s.normalizer.Frames(lines, st, date)
		slog.Info("Frames discovered",
			"station", st.Name,
			"date", date,
			"strategy", s.strategy.Name(),
			"lines", len(lines),
			"frames", len(out))
		return out, nil
	})
}

// Wavs returns the audio recordings of a station for a YYMMDD date, newest
// first.
func (s *Service) Wavs(ctx context.Context, name, date string) ([]frames.Wav, error) {
	st, err := s.resolve(name, date)
	if err != nil {
		return nil, err
	}

	key := cache.Key{Station: st.Name, Date: date, Kind: string(frames.KindAudio)}
	return s.wavCache.GetOrCompute(ctx, key, func(ctx context.Context) ([]frames.Wav, error) {
		lines, err := s.strategy.Search(ctx, st, date, frames.KindAudio)
		if err != nil {
			return nil, fmt.Errorf("search %s audio for %s: %w", st.Name, date, err)
		}
		out := s.normalizer.Wavs(lines, st, date)
		slog.Info("Wavs discovered",
			"station", st.Name,
			"date", date,
			"strategy", s.strategy.Name(),
			"lines", len(lines),
			"wavs", len(out))
		return out, nil
	})
}

type CacheStatus struct {
	Kind    string
	TTL     time.Duration
	Entries []cache.EntryStatus
}

type Status struct {
	Strategy string
	Caches   []CacheStatus
	Sessions []string
}

func (s *Service) Status() Status {
	return Status{
		Strategy: s.strategy.Name(),
		Caches: []CacheStatus{
			{Kind: s.frameCache.Kind(), TTL: s.frameCache.TTL(), Entries: s.frameCache.Status()},
			{Kind: s.wavCache.Kind(), TTL: s.wavCache.TTL(), Entries: s.wavCache.Status()},
		},
		Sessions: s.sessions.Keys(),
	}
}

type ClearResult struct {
	Frames   int
	Wavs     int
	Sessions int
}

// Clear drops every cached result and closes every pooled session.
func (s *Service) Clear() ClearResult {
	result := ClearResult{
		Frames:   s.frameCache.Clear(),
		Wavs:     s.wavCache.Clear(),
		Sessions: s.sessions.Clear(),
	}
	slog.Info("Caches cleared",
		"frames", result.Frames,
		"wavs", result.Wavs,
		"sessions", result.Sessions)
	return result
}
