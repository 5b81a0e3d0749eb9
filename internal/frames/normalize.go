package frames

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/filename"
	"github.com/cassandra-vlf/cassandra/internal/metrics"
	"github.com/cassandra-vlf/cassandra/internal/station"
)

// Normalizer turns raw remote listing lines into public records.
type Normalizer struct {
	fileServerURL string
}

func NewNormalizer(fileServerURL string) *Normalizer {
	return &Normalizer{fileServerURL: strings.TrimRight(fileServerURL, "/")}
}

type parsedLine struct {
	path      string
	name      string
	match     filename.Match
	timestamp time.Time
}

// parse runs a line through the filename grammars. Lines that match none, or
// that belong to another date, are dropped with a diagnostic.
func (n *Normalizer) parse(line, date string, kind Kind) (parsedLine, bool) {
	p := NormalizePath(line)
	if p == "" {
		return parsedLine{}, false
	}
	name := baseName(p)

	m, ok := filename.Parse(name)
	if !ok {
		slog.Debug("Skipping file matching no filename grammar", "path", p)
		metrics.RecordUnparsedFile(string(kind))
		return parsedLine{}, false
	}

	if (kind == KindImages && !m.IsImage()) || (kind == KindAudio && m.Grammar != filename.GrammarAudio) {
		slog.Debug("Skipping file of another kind", "path", p, "grammar", m.Grammar, "kind", kind)
		return parsedLine{}, false
	}
	if (m.IsImage() && m.Date != date) || (m.Grammar == filename.GrammarAudio && len(date) == 6 && m.Day != date[4:]) {
		slog.Debug("Skipping file from another date", "path", p, "date", date)
		return parsedLine{}, false
	}

	ts, err := m.Timestamp(date)
	if err != nil {
		slog.Warn("Skipping file with invalid timestamp", "path", p, "error", err)
		metrics.RecordUnparsedFile(string(kind))
		return parsedLine{}, false
	}

	return parsedLine{path: p, name: name, match: m, timestamp: ts}, true
}

func (n *Normalizer) url(st station.Station, p string) string {
	rel, ok := RelativePath(p, st.RemoteBase)
	if !ok {
		rel = tailPath(p, 2)
		slog.Debug("Path outside station root, using trailing segments",
			"path", p,
			"remote_base", st.RemoteBase,
			"relative", rel)
	}
	return joinURL(n.fileServerURL, st.Name, rel)
}

// Frames builds spectrogram records sorted newest first.
func (n *Normalizer) Frames(lines []string, st station.Station, date string) []Frame {
	out := make([]Frame, 0, len(lines))
	for _, line := range lines {
		pl, ok := n.parse(line, date, KindImages)
		if !ok {
			continue
		}
		out = append(out, Frame{
			Station:    st.Name,
			Resolution: resolutionOf(pl.path, pl.match),
			Timestamp:  pl.timestamp,
			URL:        n.url(st, pl.path),
		})
	}

	slices.SortStableFunc(out, func(a, b Frame) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// Wavs builds audio records sorted newest first.
func (n *Normalizer) Wavs(lines []string, st station.Station, date string) []Wav {
	out := make([]Wav, 0, len(lines))
	for _, line := range lines {
		pl, ok := n.parse(line, date, KindAudio)
		if !ok {
			continue
		}
		out = append(out, Wav{
			Station:    st.Name,
			Timestamp:  pl.timestamp,
			Filename:   pl.name,
			URL:        n.url(st, pl.path),
			RemotePath: pl.path,
		})
	}

	slices.SortStableFunc(out, func(a, b Wav) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out
}

// resolutionOf prefers the subfolder the file sits in over the grammar that
// matched its name. A disagreement between the two is logged.
func resolutionOf(p string, m filename.Match) Resolution {
	fromGrammar := LoRes
	if m.Grammar == filename.GrammarHiRes {
		fromGrammar = HiRes
	}

	var fromPath Resolution
	switch {
	case strings.Contains(p, "/"+SubfolderHiRes+"/"):
		fromPath = HiRes
	case strings.Contains(p, "/"+SubfolderLoRes+"/"):
		fromPath = LoRes
	default:
		return fromGrammar
	}

	if fromPath != fromGrammar {
		slog.Warn("File name and folder disagree on resolution, using folder",
			"path", p,
			"folder", fromPath,
			"grammar", m.Grammar)
	}
	return fromPath
}
