package remote

import (
	"context"
	"errors"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/station"
)

var (
	ErrAuthentication = errors.New("remote authentication failed")
	ErrConnection     = errors.New("remote connection failed")
	ErrTimeout        = errors.New("remote operation timed out")
	ErrCommandExit    = errors.New("remote command exited with non-zero status")
)

const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultDialTimeout  = 5 * time.Second

	probeCommand = "echo ok"
)

type Config struct {
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	KnownHostsFile string        `mapstructure:"known_hosts"`
}

// Session is a live remote shell connection able to run one command at a time.
type Session interface {
	Run(ctx context.Context, cmd string) (string, error)
	Close() error
}

// Dialer establishes new sessions for a station.
type Dialer interface {
	Dial(ctx context.Context, st station.Station) (Session, error)
}
