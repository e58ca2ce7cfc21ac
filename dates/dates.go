// Package dates normalizes raw date/time strings of variable precision into
// canonical values that can be compared across datasets.
//
// Clinical capture systems record the same logical date at different
// granularities: "2021", "2021-03", "2021-03-05", "2021-03-05T14:30". A
// Canonical value keeps the parsed instant together with the precision the
// raw string actually carried, so downstream comparisons never pretend to
// know more than the source did.
//
// Missing is a value here, not an error. Empty, null-like, and unparseable
// strings all normalize to the missing sentinel; callers branch on Missing()
// explicitly instead of relying on sentinel time.Time comparisons.
package dates

import (
	"time"
)

// Precision is the granularity actually conveyed by a raw date string,
// before any imputation.
type Precision int

const (
	PrecisionNone Precision = iota // missing sentinel only
	PrecisionYear
	PrecisionYearMonth
	PrecisionDate
	PrecisionDateTime
)

// String returns the precision name used in logs and persisted rows.
func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionYearMonth:
		return "year-month"
	case PrecisionDate:
		return "full-date"
	case PrecisionDateTime:
		return "date-time"
	default:
		return "none"
	}
}

// Canonical is a normalized date/time value. The zero value is the missing
// sentinel. Canonical values are never mutated after creation.
type Canonical struct {
	// Time is the parsed instant, floored to the start of whatever the raw
	// string did not specify (time.Parse semantics). Only valid when
	// Precision != PrecisionNone.
	Time time.Time
	// Precision is the granularity the raw string supported. Never finer
	// than the input shape.
	Precision Precision
	// Imputed is true when the day component was filled in as "01" because
	// the raw string was a year-month. Year and month are never imputed.
	Imputed bool
}

// Missing reports whether the value is the missing sentinel.
func (c Canonical) Missing() bool {
	return c.Precision == PrecisionNone
}

// HasTime reports whether the raw string carried a time-of-day component.
func (c Canonical) HasTime() bool {
	return c.Precision == PrecisionDateTime
}

// Before reports whether c is strictly earlier than other. Either side being
// missing is never "before" anything; callers must branch on Missing() first
// when the distinction matters.
func (c Canonical) Before(other Canonical) bool {
	if c.Missing() || other.Missing() {
		return false
	}
	return c.Time.Before(other.Time)
}

// After reports whether c is strictly later than other. Missing values are
// never "after" anything.
func (c Canonical) After(other Canonical) bool {
	if c.Missing() || other.Missing() {
		return false
	}
	return c.Time.After(other.Time)
}

// Equal reports whether c and other parse to the same instant. Two missing
// values compare equal.
func (c Canonical) Equal(other Canonical) bool {
	if c.Missing() || other.Missing() {
		return c.Missing() && other.Missing()
	}
	return c.Time.Equal(other.Time)
}

// String renders the canonical value at its own precision. A year-month
// input renders with the imputed day ("2021-03-01"); a year-only input
// renders as the bare year since no finer component exists to show.
func (c Canonical) String() string {
	switch c.Precision {
	case PrecisionYear:
		return c.Time.Format("2006")
	case PrecisionYearMonth, PrecisionDate:
		return c.Time.Format("2006-01-02")
	case PrecisionDateTime:
		return c.Time.Format("2006-01-02T15:04:05")
	default:
		return ""
	}
}

// layout pairs an exact input length with a time.Parse layout. Matching on
// length before parsing keeps a 10-character garbage string from being
// half-parsed by a shorter layout.
type layout struct {
	length    int
	format    string
	precision Precision
}

// Layouts are tried most-specific first; the first length match decides.
var layouts = []layout{
	{19, "2006-01-02T15:04:05", PrecisionDateTime},
	{16, "2006-01-02T15:04", PrecisionDateTime},
	{13, "2006-01-02T15", PrecisionDateTime},
	{10, "2006-01-02", PrecisionDate},
	{7, "2006-01", PrecisionYearMonth},
	{4, "2006", PrecisionYear},
}

// Parse normalizes a raw date/time string. The second return value is false
// when the input is empty or matches no known shape; that is the missing
// sentinel, not an error, and Parse never fails louder than that.
//
// A bare year or year-month is valid low-precision input, not malformed.
// Year-month values get day "01" imputed and are marked Imputed.
func Parse(raw string) (Canonical, bool) {
	if raw == "" {
		return Canonical{}, false
	}
	for _, l := range layouts {
		if len(raw) != l.length {
			continue
		}
		t, err := time.Parse(l.format, raw)
		if err != nil {
			// Right length, wrong shape. No shorter layout can match a
			// longer string, so this input is unparseable.
			return Canonical{}, false
		}
		return Canonical{
			Time:      t,
			Precision: l.precision,
			Imputed:   l.precision == PrecisionYearMonth,
		}, true
	}
	return Canonical{}, false
}

// MustParse is a test helper; it panics on inputs Parse would treat as
// missing.
func MustParse(raw string) Canonical {
	c, ok := Parse(raw)
	if !ok {
		panic("dates: unparseable input in MustParse: " + raw)
	}
	return c
}

// Combine joins a date string and a time string into a single date-time
// string for normalization. An empty time returns the date unchanged. A
// bare "HH:MM" time is accepted alongside "HH:MM:SS". Partial dates are
// returned as-is: a time of day cannot refine a year-month.
func Combine(date, tod string) string {
	if len(date) != 10 || tod == "" {
		return date
	}
	if len(tod) != 5 && len(tod) != 8 {
		return date
	}
	return date + "T" + tod
}
