package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/station"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type SSHDialer struct {
	timeout         time.Duration
	hostKeyCallback ssh.HostKeyCallback
}

// NewSSHDialer builds a dialer. When knownHostsFile is empty host keys are
// not verified.
func NewSSHDialer(cfg Config) (*SSHDialer, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	callback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		cb, err := knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
		callback = cb
	} else {
		slog.Warn("No known_hosts file configured, station host keys will not be verified")
	}

	return &SSHDialer{timeout: timeout, hostKeyCallback: callback}, nil
}

func (d *SSHDialer) Dial(ctx context.Context, st station.Station) (Session, error) {
	auth, err := authMethods(st)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            st.Username,
		Auth:            auth,
		HostKeyCallback: d.hostKeyCallback,
		Timeout:         d.timeout,
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	addr := net.JoinHostPort(st.Host, strconv.Itoa(st.Port))
	var netDialer net.Dialer
	conn, err := netDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classify(ctx, addr, err)
	}

	// the handshake has no context of its own
	deadline, _ := ctx.Deadline()
	_ = conn.SetDeadline(deadline)

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, classify(ctx, addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	slog.Info("SSH session established", "station", st.Name, "key", st.Key())
	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func authMethods(st station.Station) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if st.KeyFile != "" {
		pem, err := os.ReadFile(st.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read key file for %s: %v", ErrAuthentication, st.Name, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("%w: parse key file for %s: %v", ErrAuthentication, st.Name, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if st.Password != "" {
		methods = append(methods, ssh.Password(st.Password))
	}
	return methods, nil
}

func classify(ctx context.Context, addr string, err error) error {
	var netErr net.Error
	switch {
	case strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%w: %s: %v", ErrAuthentication, addr, err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w: %s: %v", ErrConnection, ErrTimeout, addr, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrConnection, addr, err)
	}
}

type sshSession struct {
	client *ssh.Client
}

// Run executes cmd in a fresh channel and returns its stdout. A command that
// outlives ctx has its channel closed.
func (s *sshSession) Run(ctx context.Context, cmd string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: open channel: %v", ErrConnection, err)
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(cmd)
	}()

	select {
	case err := <-done:
		if err == nil {
			return stdout.String(), nil
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), fmt.Errorf("%w: status %d: %s", ErrCommandExit, exitErr.ExitStatus(), msg)
		}
		return stdout.String(), fmt.Errorf("%w: %v: %s", ErrConnection, err, msg)
	case <-ctx.Done():
		_ = sess.Close()
		return "", fmt.Errorf("%w: %q: %w", ErrTimeout, cmd, ctx.Err())
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
