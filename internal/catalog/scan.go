package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cassandra-vlf/cassandra/internal/filename"
	"github.com/cassandra-vlf/cassandra/internal/frames"
)

var extensions = map[string][]string{
	frames.SubfolderLoRes: {".jpg", ".jpeg", ".png"},
	frames.SubfolderHiRes: {".jpg", ".jpeg", ".png"},
	frames.SubfolderWav:   {".wav"},
}

// Scan walks <root>/<station>/{LoRes,HiRes,Wav} and builds catalog entries.
// With no stations given, every directory under root is scanned.
func Scan(root string, stations ...string) ([]Entry, error) {
	if len(stations) == 0 {
		dirs, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read mount %s: %w", root, err)
		}
		for _, d := range dirs {
			if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
				stations = append(stations, d.Name())
			}
		}
	}

	var entries []Entry
	for _, st := range stations {
		found, err := scanStation(filepath.Join(root, st), st)
		if err != nil {
			return nil, err
		}
		slog.Info("Station scanned", "station", st, "files", len(found))
		entries = append(entries, found...)
	}
	return entries, nil
}

func scanStation(dir, station string) ([]Entry, error) {
	var entries []Entry

	subfolders := make([]string, 0, len(extensions))
	for sub := range extensions {
		subfolders = append(subfolders, sub)
	}
	sort.Strings(subfolders)

	for _, sub := range subfolders {
		subdir := filepath.Join(dir, sub)
		if _, err := os.Stat(subdir); os.IsNotExist(err) {
			slog.Debug("Station has no subfolder", "station", station, "subfolder", sub)
			continue
		}

		err := filepath.WalkDir(subdir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasExtension(d.Name(), extensions[sub]) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}

			entries = append(entries, Entry{
				Station:    station,
				Resolution: sub,
				Timestamp:  timestampOf(d.Name(), info.ModTime()),
				Key:        filepath.ToSlash(rel),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s/%s: %w", station, sub, err)
		}
	}
	return entries, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// timestampOf reads the capture time from the file name. Audio names carry
// only the day, so year and month come from the modification time. Names
// matching no grammar fall back to the modification time.
func timestampOf(name string, modTime time.Time) time.Time {
	modTime = modTime.UTC()

	m, ok := filename.Parse(name)
	if !ok {
		slog.Debug("Using modification time for unrecognised file", "file", name)
		return modTime
	}

	date := m.Date
	if m.Grammar == filename.GrammarAudio {
		date = modTime.Format("060102")
	}
	ts, err := m.Timestamp(date)
	if err != nil {
		slog.Warn("Invalid timestamp in file name, using modification time", "file", name, "error", err)
		return modTime
	}
	return ts
}
