package filename

import (
	"fmt"
	"regexp"
	"time"
)

// Grammar identifies which device filename shape matched.
type Grammar string

const (
	GrammarLoRes Grammar = "LoRes"
	GrammarHiRes Grammar = "HiRes"
	GrammarAudio Grammar = "Audio"
)

const (
	dateLayout = "060102"
	dateLen    = 6
)

// Match holds the fragments extracted from a device filename.
type Match struct {
	Grammar    Grammar
	StationTag string
	Date       string // YYMMDD, empty for audio
	Day        string // DD, audio only
	Clock      string // HHMM or HHMMSS
}

type rule struct {
	grammar Grammar
	pattern *regexp.Regexp
	resolve func(groups []string) Match
}

// Rules are tried in this order; the first match wins.
var rules = []rule{
	{
		grammar: GrammarLoRes,
		pattern: regexp.MustCompile(`^([^_/\\]+)_LoResT_(\d{6})UTC(\d{4}(?:\d{2})?)\.(?i:jpg)$`),
		resolve: func(g []string) Match {
			return Match{Grammar: GrammarLoRes, StationTag: g[1], Date: g[2], Clock: g[3]}
		},
	},
	{
		grammar: GrammarHiRes,
		pattern: regexp.MustCompile(`^([^_/\\]+)_HiResT_(\d{6})UTC(\d{6})\.(?i:jpg)$`),
		resolve: func(g []string) Match {
			return Match{Grammar: GrammarHiRes, StationTag: g[1], Date: g[2], Clock: g[3]}
		},
	},
	{
		grammar: GrammarAudio,
		pattern: regexp.MustCompile(`^([^_/\\]+)_Audio_(\d{2})UTC(\d{6})\.(?i:wav)$`),
		resolve: func(g []string) Match {
			return Match{Grammar: GrammarAudio, StationTag: g[1], Day: g[2], Clock: g[3]}
		},
	},
}

// Parse tries each grammar in order against a bare filename.
func Parse(name string) (Match, bool) {
	for _, r := range rules {
		if groups := r.pattern.FindStringSubmatch(name); groups != nil {
			return r.resolve(groups), true
		}
	}
	return Match{}, false
}

// Timestamp reconstructs the UTC time encoded by the filename. Audio names only
// carry the day of month, so year and month come from requestedDate (YYMMDD).
func (m Match) Timestamp(requestedDate string) (time.Time, error) {
	date := m.Date
	if m.Grammar == GrammarAudio {
		if len(requestedDate) < dateLen {
			return time.Time{}, fmt.Errorf("requested date %q too short to complete audio day %s", requestedDate, m.Day)
		}
		date = requestedDate[:4] + m.Day
	}

	layout := dateLayout + "1504"
	if len(m.Clock) == 6 {
		layout = dateLayout + "150405"
	}

	ts, err := time.ParseInLocation(layout, date+m.Clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s timestamp %s%s: %w", m.Grammar, date, m.Clock, err)
	}
	return ts, nil
}

// IsImage reports whether the match came from one of the spectrogram grammars.
func (m Match) IsImage() bool {
	return m.Grammar == GrammarLoRes || m.Grammar == GrammarHiRes
}
