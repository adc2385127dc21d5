// Package dates normalizes the heterogeneous date strings the news
// sources publish into timezone-aware UTC instants.
package dates

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cltagora/cltagora/internal/types"
)

// Layouts seen across the configured sources.
const (
	layoutBR         = "02/01/2006"
	layoutBRTime     = "02/01/2006 15:04"
	layoutISOBare    = "2006-01-02T15:04:05"
	layoutDateOnly   = "2006-01-02"
	layoutClockOnly  = "15:04"
	layoutRSS        = "Mon, 02 Jan 2006 15:04:05 -0700"
	layoutRSSNoSecs  = "Mon, 02 Jan 2006 15:04 -0700"
	layoutVerbosePT  = "2 de January de 2006"
	layoutVerbosePT2 = "2 January 2006"
)

var ptMonths = map[string]string{
	"janeiro":   "January",
	"fevereiro": "February",
	"março":     "March",
	"abril":     "April",
	"maio":      "May",
	"junho":     "June",
	"julho":     "July",
	"agosto":    "August",
	"setembro":  "September",
	"outubro":   "October",
	"novembro":  "November",
	"dezembro":  "December",
}

var (
	daysAgoRe  = regexp.MustCompile(`há (\d+) dias?|(\d+) days? ago`)
	hoursAgoRe = regexp.MustCompile(`há (\d+) horas?|(\d+) hours? ago`)
)

// Normalizer parses per-source date strings. It never returns an error:
// an unparseable string yields (zero, false) and a diagnostic log line.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer that resolves relative dates
// ("Hoje", "Ontem") against the wall clock.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With("component", "date_normalizer"),
		now:    time.Now,
	}
}

// WithNow fixes the reference clock. Relative dates resolve against it.
func (n *Normalizer) WithNow(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Parse converts a source-native date string into a UTC instant.
// Dispatch is per source because each site has a stable native format;
// unknown sources fall through every known rule.
func (n *Normalizer) Parse(raw, source string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	var t time.Time
	var ok bool

	switch source {
	case types.SourceMundoRH, types.SourceTrabalhistaBlog:
		t, ok = parseISO(raw)
	case types.SourceContabeis:
		t, ok = n.parseContabeis(raw)
	case types.SourceGuiaTrabalhista:
		t, ok = parseBR(raw)
	default:
		t, ok = n.parseAny(raw)
	}

	if !ok {
		n.logger.Warn("unparseable date", "source", source, "raw", raw)
		return time.Time{}, false
	}
	return t.UTC(), true
}

// parseISO handles ISO-8601 with a literal Z or a numeric offset, and
// naive date-times which are treated as UTC.
func parseISO(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(layoutISOBare, raw, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(layoutDateOnly, raw, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseContabeis handles the formats the Contábeis site mixes: RSS
// entries carry RFC-822 dates with a numeric offset, the HTML listing
// uses "Hoje HH:MM", "Ontem HH:MM" or "dd/mm/yyyy[ HH:MM]".
func (n *Normalizer) parseContabeis(raw string) (time.Time, bool) {
	if t, ok := parseRSS(raw); ok {
		return t, true
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "hoje"):
		return n.relativeDay(raw, "hoje", 0)
	case strings.Contains(lower, "ontem"):
		return n.relativeDay(raw, "ontem", -1)
	}

	return parseBR(raw)
}

// relativeDay combines the time-of-day left over after removing the
// marker word with today (offset 0) or yesterday (offset -1), in UTC.
func (n *Normalizer) relativeDay(raw, marker string, dayOffset int) (time.Time, bool) {
	clock := strings.TrimSpace(stripFold(raw, marker))
	day := n.now().UTC().AddDate(0, 0, dayOffset)
	if clock == "" {
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), true
	}
	t, err := time.Parse(layoutClockOnly, clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), true
}

// parseRSS handles RFC-822 style dates with weekday and month names.
func parseRSS(raw string) (time.Time, bool) {
	for _, layout := range []string{layoutRSS, layoutRSSNoSecs, time.RFC1123} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseBR handles dd/mm/yyyy with an optional HH:MM, as UTC.
func parseBR(raw string) (time.Time, bool) {
	for _, layout := range []string{layoutBRTime, layoutBR} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseVerbosePT handles "15 de janeiro de 2024" style dates.
func parseVerbosePT(raw string) (time.Time, bool) {
	lower := strings.ToLower(raw)
	for pt, en := range ptMonths {
		if strings.Contains(lower, pt) {
			lower = strings.Replace(lower, pt, en, 1)
			for _, layout := range []string{layoutVerbosePT, layoutVerbosePT2} {
				if t, err := time.ParseInLocation(layout, lower, time.UTC); err == nil {
					return t, true
				}
			}
			return time.Time{}, false
		}
	}
	return time.Time{}, false
}

// parseRelative handles "há N dias" / "há N horas" and their English
// equivalents.
func (n *Normalizer) parseRelative(raw string) (time.Time, bool) {
	lower := strings.ToLower(raw)

	if m := daysAgoRe.FindStringSubmatch(lower); m != nil {
		days, _ := strconv.Atoi(firstGroup(m))
		return n.now().UTC().AddDate(0, 0, -days), true
	}
	if m := hoursAgoRe.FindStringSubmatch(lower); m != nil {
		hours, _ := strconv.Atoi(firstGroup(m))
		return n.now().UTC().Add(-time.Duration(hours) * time.Hour), true
	}
	return time.Time{}, false
}

// parseAny tries every known rule in order. Used for sources without a
// dedicated dispatch arm.
func (n *Normalizer) parseAny(raw string) (time.Time, bool) {
	if t, ok := parseISO(raw); ok {
		return t, true
	}
	if t, ok := parseRSS(raw); ok {
		return t, true
	}
	if t, ok := parseBR(raw); ok {
		return t, true
	}
	if t, ok := parseVerbosePT(raw); ok {
		return t, true
	}

	lower := strings.ToLower(raw)
	if strings.Contains(lower, "hoje") || strings.Contains(lower, "today") {
		marker := "hoje"
		if !strings.Contains(lower, "hoje") {
			marker = "today"
		}
		return n.relativeDay(raw, marker, 0)
	}
	if strings.Contains(lower, "ontem") || strings.Contains(lower, "yesterday") {
		marker := "ontem"
		if !strings.Contains(lower, "ontem") {
			marker = "yesterday"
		}
		return n.relativeDay(raw, marker, -1)
	}

	return n.parseRelative(raw)
}

// stripFold removes the first case-insensitive occurrence of marker.
func stripFold(s, marker string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(marker))
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(marker):]
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
