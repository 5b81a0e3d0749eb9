package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/cassandra-vlf/cassandra/internal/remote"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

// listCommand lists bare file names matching pattern inside one subfolder,
// without descending into subdirectories.
func listCommand(st station.Station, subfolder, pattern string) string {
	if st.Shell == station.ShellPosix {
		return fmt.Sprintf("cd %s && ls -1 -- %s", shellQuote(st.Join(subfolder)), pattern)
	}
	return fmt.Sprintf(`dir /b /a-d "%s"`, st.Join(subfolder, pattern))
}

// recursiveCommand lists full paths of every file under the station root
// whose name matches pattern.
func recursiveCommand(st station.Station, pattern string) string {
	if st.Shell == station.ShellPosix {
		return fmt.Sprintf("find %s -type f -name %s", shellQuote(st.Join()), shellQuote(pattern))
	}
	return fmt.Sprintf(`dir /s /b /a-d "%s"`, st.Join(pattern))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type executor struct {
	strategy string
	timeout  time.Duration
}

// run executes one listing command and returns its non-empty output lines. A
// failing command is logged and yields nothing; it never aborts the search.
func (e executor) run(ctx context.Context, sess remote.Session, cmd string) []string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	out, err := sess.Run(ctx, cmd)
	if err != nil {
		// listing tools exit non-zero when nothing matches
		if errors.Is(err, remote.ErrCommandExit) && strings.TrimSpace(out) == "" {
			slog.Debug("Listing returned no files", "command", cmd, "detail", err)
			metrics.RecordListingCommand(e.strategy, true)
			return nil
		}
		slog.Warn("Listing command failed, skipping",
			"command", cmd,
			"duration", time.Since(start),
			"error", err)
		metrics.RecordListingCommand(e.strategy, false)
		return nil
	}
	metrics.RecordListingCommand(e.strategy, true)

	lines := splitLines(out)
	slog.Debug("Listing command completed",
		"command", cmd,
		"lines", len(lines),
		"duration", time.Since(start))
	return lines
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
