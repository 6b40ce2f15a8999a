// Package timeparse turns the timestamp strings news sites render into a
// single canonical instant. Normalize never fails: anything it cannot read
// becomes the fetch time.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Normalizer converts heterogeneous timestamp text into time.Time values.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Normalizer that interprets zone-less timestamps in loc.
// A nil loc means Asia/Seoul (or a fixed +09:00 zone if tzdata is missing).
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = DefaultLocation()
	}
	return &Normalizer{loc: loc, now: time.Now}
}

// WithClock replaces the fetch-time source, mostly for tests.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Location returns the zone used for zone-less timestamps.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Now returns the current fetch time in the normalizer's zone.
func (n *Normalizer) Now() time.Time { return n.now().In(n.loc) }

// DefaultLocation returns KST.
func DefaultLocation() *time.Location {
	return LoadLocation("Asia/Seoul")
}

// LoadLocation loads name, falling back to a fixed +09:00 zone.
func LoadLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

var relativePatterns = []struct {
	re   *regexp.Regexp
	unit string
}{
	{regexp.MustCompile(`(\d+)\s*분\s*전`), "minute"},
	{regexp.MustCompile(`(\d+)\s*시간\s*전`), "hour"},
	{regexp.MustCompile(`(\d+)\s*일\s*전`), "day"},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:minutes?|mins?)\s+ago`), "minute"},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:hours?|hrs?)\s+ago`), "hour"},
	{regexp.MustCompile(`(?i)(\d+)\s*days?\s+ago`), "day"},
}

// Exact layouts tried against the whole trimmed text. Layouts without a
// year get the current year.
var absoluteLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"2006-01-02 15:04", true},
	{"2006.01.02 15:04", true},
	{"2006-01-02", true},
	{"2006.01.02", true},
	{"01-02 15:04", false},
	{"01.02 15:04", false},
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC1123Z,
	time.RFC1123,
}

var (
	embeddedDateTime = regexp.MustCompile(`(\d{4})[-./]\s*(\d{1,2})[-./]\s*(\d{1,2})\.?[\sT]*(오전|오후|AM|PM|am|pm)?\s*(\d{1,2}):(\d{2})(?::(\d{2}))?`)
	embeddedDate     = regexp.MustCompile(`(\d{4})[-./]\s*(\d{1,2})[-./]\s*(\d{1,2})`)
	embeddedMonthDay = regexp.MustCompile(`(?:^|\D)(\d{1,2})[-./](\d{1,2})\s+(\d{1,2}):(\d{2})`)
	justNow          = regexp.MustCompile(`방금|(?i)just now`)
)

// Normalize parses text relative to the current fetch time.
func (n *Normalizer) Normalize(text string) time.Time {
	return n.NormalizeAt(text, n.Now())
}

// NormalizeAt parses text relative to now. Rules, first match wins:
// relative phrasing, exact absolute layouts, ISO-8601, absolute dates
// embedded in longer text, then now itself.
func (n *Normalizer) NormalizeAt(text string, now time.Time) time.Time {
	now = now.In(n.loc)
	s := strings.TrimSpace(text)
	if s == "" {
		return now
	}

	if t, ok := parseRelative(s, now); ok {
		return t
	}
	if t, ok := n.parseAbsolute(s, now); ok {
		return t
	}
	if t, ok := n.parseISO(s); ok {
		return t
	}
	if t, ok := n.parseEmbedded(s, now); ok {
		return t
	}
	return now
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	if justNow.MatchString(s) {
		return now, true
	}
	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil || v > 100000 {
			continue
		}
		var t time.Time
		switch p.unit {
		case "minute":
			t = now.Add(-time.Duration(v) * time.Minute)
		case "hour":
			t = now.Add(-time.Duration(v) * time.Hour)
		default:
			t = now.AddDate(0, 0, -v)
		}
		if sane(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) parseAbsolute(s string, now time.Time) (time.Time, bool) {
	for _, l := range absoluteLayouts {
		t, err := time.ParseInLocation(l.layout, s, n.loc)
		if err != nil {
			continue
		}
		if !l.hasYear {
			t = time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, n.loc)
		}
		if sane(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) parseISO(s string) (time.Time, bool) {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "+00:00"
	}
	for _, layout := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if strings.Contains(layout, "Z07") || strings.Contains(layout, "MST") || strings.Contains(layout, "-0700") {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, n.loc)
		}
		if err == nil && sane(t) {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) parseEmbedded(s string, now time.Time) (time.Time, bool) {
	if m := embeddedDateTime.FindStringSubmatch(s); m != nil {
		hour := atoi(m[5])
		switch strings.ToLower(m[4]) {
		case "오후", "pm":
			if hour < 12 {
				hour += 12
			}
		case "오전", "am":
			if hour == 12 {
				hour = 0
			}
		}
		sec := 0
		if m[7] != "" {
			sec = atoi(m[7])
		}
		if t, ok := n.build(atoi(m[1]), atoi(m[2]), atoi(m[3]), hour, atoi(m[6]), sec); ok {
			return t, true
		}
	}
	if m := embeddedDate.FindStringSubmatch(s); m != nil {
		if t, ok := n.build(atoi(m[1]), atoi(m[2]), atoi(m[3]), 0, 0, 0); ok {
			return t, true
		}
	}
	if m := embeddedMonthDay.FindStringSubmatch(s); m != nil {
		if t, ok := n.build(now.Year(), atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), 0); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// build rejects out-of-range fields instead of letting time.Date roll them over.
func (n *Normalizer) build(year, month, day, hour, minute, sec int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, n.loc)
	if t.Day() != day || !sane(t) {
		return time.Time{}, false
	}
	return t, true
}

// sane keeps results inside the range encoding/json can marshal.
func sane(t time.Time) bool {
	y := t.Year()
	return y >= 1900 && y <= 9999
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
