package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

// Pool keeps one long-lived session per user@host:port. Sessions are probed
// before every reuse and replaced when the probe fails.
type Pool struct {
	dialer       Dialer
	probeTimeout time.Duration
	sessions     map[string]Session
	mu           sync.Mutex
}

func NewPool(dialer Dialer, probeTimeout time.Duration) *Pool {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Pool{
		dialer:       dialer,
		probeTimeout: probeTimeout,
		sessions:     make(map[string]Session),
	}
}

// Acquire returns a live session for the station. The lock is held for the
// whole probe-or-dial sequence so concurrent callers never dial the same key
// twice. Failed dials are not retried.
func (p *Pool) Acquire(ctx context.Context, st station.Station) (Session, error) {
	key := st.Key()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.sessions[key]; ok {
		err := p.probe(ctx, existing)
		if err == nil {
			slog.Debug("Reusing pooled session", "key", key)
			metrics.RecordSessionEvent("reused")
			return existing, nil
		}

		slog.Warn("Pooled session failed liveness probe, replacing",
			"key", key,
			"error", err)
		metrics.RecordSessionEvent("probe_failed")

		if err := existing.Close(); err != nil {
			slog.Debug("Error closing dead session", "key", key, "error", err)
		}
		delete(p.sessions, key)
	}

	sess, err := p.dialer.Dial(ctx, st)
	if err != nil {
		slog.Error("Failed to establish session",
			"key", key,
			"station", st.Name,
			"error", err)
		metrics.RecordSessionEvent("dial_failed")
		return nil, fmt.Errorf("acquire session for %s: %w", st.Name, err)
	}

	p.sessions[key] = sess
	metrics.RecordSessionEvent("dialed")
	metrics.SetSessionsActive(len(p.sessions))

	slog.Info("Session added to pool",
		"key", key,
		"total_sessions", len(p.sessions))

	return sess, nil
}

// probe runs under its own timeout only. A caller's cancelled context says
// nothing about the session and must not get it evicted.
func (p *Pool) probe(ctx context.Context, sess Session) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.probeTimeout)
	defer cancel()

	_, err := sess.Run(ctx, probeCommand)
	return err
}

// Clear closes and drops every pooled session, returning how many were closed.
func (p *Pool) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := len(p.sessions)
	for key, sess := range p.sessions {
		if err := sess.Close(); err != nil {
			slog.Debug("Error closing session during clear", "key", key, "error", err)
		}
	}
	p.sessions = make(map[string]Session)
	metrics.SetSessionsActive(0)

	if count > 0 {
		slog.Info("Session pool cleared", "closed", count)
	}
	return count
}

// Keys lists the pooled session keys in sorted order.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.sessions))
	for key := range p.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (p *Pool) Close() {
	p.Clear()
}
