package promptfmt

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	absoluteLayout = "2006-01-02 15:04 MST"
	dateLayout     = "2006-01-02"
)

// TimeFormatter turns timestamps into prompt text. It is injected into every
// formatter so that rendering never depends on the process clock or zone.
type TimeFormatter interface {
	// Absolute renders t as a wall-clock timestamp.
	Absolute(t time.Time) string
	// Relative renders t relative to "now", e.g. "2 weeks ago".
	Relative(t time.Time) string
	// Date renders the calendar date of t.
	Date(t time.Time) string
}

// ZoneFormatter formats times in a fixed location against a fixed reference
// instant.
type ZoneFormatter struct {
	loc *time.Location
	now time.Time
}

var _ TimeFormatter = ZoneFormatter{}

// NewZoneFormatter creates a ZoneFormatter. A nil loc means UTC.
func NewZoneFormatter(loc *time.Location, now time.Time) ZoneFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return ZoneFormatter{loc: loc, now: now}
}

// Absolute implements TimeFormatter.
func (f ZoneFormatter) Absolute(t time.Time) string {
	return t.In(f.loc).Format(absoluteLayout)
}

// Relative implements TimeFormatter.
func (f ZoneFormatter) Relative(t time.Time) string {
	return humanize.RelTime(t, f.now, "ago", "from now")
}

// Date implements TimeFormatter.
func (f ZoneFormatter) Date(t time.Time) string {
	return t.In(f.loc).Format(dateLayout)
}

// ValidTime reports whether t is set. The zero time marks a missing
// timestamp; any other instant, including dates before 1970, is rendered.
func ValidTime(t time.Time) bool {
	return !t.IsZero()
}
