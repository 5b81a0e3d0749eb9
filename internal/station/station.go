package station

import (
	"errors"
	"fmt"
	"strings"
)

const DefaultPort = 22

var (
	ErrUnknownStation    = errors.New("unknown station")
	ErrIncompleteStation = errors.New("station is missing connection settings")
)

// Shell selects the listing command dialect of a station host.
type Shell string

const (
	ShellWindows Shell = "windows"
	ShellPosix   Shell = "posix"
)

type Station struct {
	Name       string `yaml:"-"`
	Host       string `yaml:"host"`
	Username   string `yaml:"username"`
	Port       int    `yaml:"port"`
	RemoteBase string `yaml:"remote_base"`
	Password   string `yaml:"password"`
	KeyFile    string `yaml:"key_file"`
	Shell      Shell  `yaml:"shell"`
}

// Key identifies the remote session a station needs. Stations sharing a host
// and account share a session.
func (s Station) Key() string {
	return fmt.Sprintf("%s@%s:%d", s.Username, s.Host, s.Port)
}

// Validate reports which connection fields are missing.
func (s Station) Validate() error {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "host")
	}
	if s.Username == "" {
		missing = append(missing, "username")
	}
	if s.RemoteBase == "" {
		missing = append(missing, "remote_base")
	}
	if s.Password == "" && s.KeyFile == "" {
		missing = append(missing, "password or key_file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrIncompleteStation, s.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Separator is the path separator used on the station host.
func (s Station) Separator() string {
	if s.Shell == ShellPosix {
		return "/"
	}
	return `\`
}

// Join builds a remote path from the station root and path elements using
// the host separator.
func (s Station) Join(elem ...string) string {
	sep := s.Separator()
	parts := make([]string, 0, len(elem)+1)
	parts = append(parts, strings.TrimRight(s.RemoteBase, `/\`))
	for _, e := range elem {
		if e = strings.Trim(e, `/\`); e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, sep)
}

func (s *Station) applyDefaults() {
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Shell == "" {
		s.Shell = ShellWindows
	}
}
