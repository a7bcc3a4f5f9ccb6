// Package dates normalizes the heterogeneous date formats published by
// legal sources into ISO YYYY-MM-DD.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts used across sources.
const (
	ISO     = "2006-01-02"
	Compact = "20060102"
	Slashed = "02/01/2006"
)

var (
	isoPattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	compactPattern = regexp.MustCompile(`^\d{8}$`)
	// European day-first dates: DD/MM/YYYY, DD.MM.YYYY, DD-MM-YYYY, with an
	// optional trailing time that is discarded.
	europeanPattern = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})(?:[ T].*)?$`)
)

// Normalize converts raw into YYYY-MM-DD. Explicit day-first patterns are
// tried before the generic parser so 05/03/2024 is always 5 March.
// Unparseable input yields "".
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if isoPattern.MatchString(s) {
		return reformat(ISO, s)
	}

	if compactPattern.MatchString(s) {
		return reformat(Compact, s)
	}

	if m := europeanPattern.FindStringSubmatch(s); m != nil {
		return reformat(ISO, m[3]+"-"+pad(m[2])+"-"+pad(m[1]))
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return ""
	}

	return t.Format(ISO)
}

// Parse returns the time for raw using Normalize. ok is false when raw
// cannot be understood.
func Parse(raw string) (time.Time, bool) {
	n := Normalize(raw)
	if n == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(ISO, n)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// FormatCompact renders t as YYYYMMDD.
func FormatCompact(t time.Time) string {
	return t.Format(Compact)
}

// FormatSlashed renders t as DD/MM/YYYY.
func FormatSlashed(t time.Time) string {
	return t.Format(Slashed)
}

// FormatISO renders t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISO)
}

func reformat(layout, s string) string {
	t, err := time.Parse(layout, s)
	if err != nil {
		return ""
	}
	return t.Format(ISO)
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
