package station

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is the read-only set of configured stations, in file order.
type Registry struct {
	stations map[string]Station
	names    []string
}

// LoadRegistry reads a YAML mapping of station name to connection settings.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stations file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes stations from YAML. Station order follows the
// document, so a yaml.Node is walked instead of decoding into a map.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse stations file: %w", err)
	}

	r := &Registry{stations: make(map[string]Station)}
	if len(doc.Content) == 0 {
		return r, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("stations file must be a mapping of station name to settings")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var st Station
		if err := root.Content[i+1].Decode(&st); err != nil {
			return nil, fmt.Errorf("failed to decode station %s: %w", name, err)
		}
		st.Name = name
		st.applyDefaults()

		if _, dup := r.stations[name]; dup {
			return nil, fmt.Errorf("duplicate station %s", name)
		}
		if err := st.Validate(); err != nil {
			slog.Warn("Station is incomplete, requests for it will fail", "station", name, "error", err)
		}
		if st.Shell != ShellWindows && st.Shell != ShellPosix {
			return nil, fmt.Errorf("station %s: unsupported shell %q", name, st.Shell)
		}

		r.stations[name] = st
		r.names = append(r.names, name)
	}

	slog.Info("Station registry loaded", "stations", len(r.names))
	return r, nil
}

// NewRegistry builds a registry from stations in the given order.
func NewRegistry(stations ...Station) *Registry {
	r := &Registry{stations: make(map[string]Station, len(stations))}
	for _, st := range stations {
		st.applyDefaults()
		r.stations[st.Name] = st
		r.names = append(r.names, st.Name)
	}
	return r
}

func (r *Registry) Lookup(name string) (Station, error) {
	st, ok := r.stations[name]
	if !ok {
		return Station{}, fmt.Errorf("%w: %s", ErrUnknownStation, name)
	}
	return st, nil
}

// Names returns station names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Default returns the first configured station, if any.
func (r *Registry) Default() (string, bool) {
	if len(r.names) == 0 {
		return "", false
	}
	return r.names[0], true
}
