package dates

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies which variant an Expression holds.
type Kind int

const (
	KindUnparseable Kind = iota
	KindYear
	KindYearSeason
	KindYearMonth
	KindFull
)

func (k Kind) String() string {
	switch k {
	case KindYear:
		return "year"
	case KindYearSeason:
		return "year_season"
	case KindYearMonth:
		return "year_month"
	case KindFull:
		return "full"
	default:
		return "unparseable"
	}
}

// MarshalText renders the kind name for JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText reads a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for candidate := KindUnparseable; candidate <= KindFull; candidate++ {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown date kind %q", text)
}

// Expression is a parsed date value. Only the fields relevant to Kind are set:
// Full has Year, Month, Day; YearMonth has Year, Month; YearSeason has Year,
// Season and the three Months of that season; Year has Year.
type Expression struct {
	Kind   Kind     `json:"kind"`
	Raw    string   `json:"raw"`
	Year   string   `json:"year,omitempty"`
	Month  string   `json:"month,omitempty"`
	Day    string   `json:"day,omitempty"`
	Season string   `json:"season,omitempty"`
	Months []string `json:"months,omitempty"`
}

var (
	fullPattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	monthPattern  = regexp.MustCompile(`^(\d{4})-(\d{2})`)
	seasonPattern = regexp.MustCompile(`^(\d{4})-(SP|SU|AU|WI)`)
	yearPattern   = regexp.MustCompile(`^(\d{4})`)
)

var seasonMonths = map[string][]string{
	"SP": {"03", "04", "05"},
	"SU": {"06", "07", "08"},
	"AU": {"09", "10", "11"},
	"WI": {"12", "01", "02"},
}

// unresolved tags carry no calendar position and are never matched.
var unresolved = map[string]struct{}{
	"PRESENT_REF": {},
	"PAST_REF":    {},
	"FUTURE_REF":  {},
	"XXXX-XX-XX":  {},
}

// IsUnresolved reports whether tag is empty or a tagger sentinel meaning the
// date could not be resolved.
func IsUnresolved(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return true
	}
	_, ok := unresolved[tag]
	return ok
}

// Parse tries the day, month, season, and year patterns in that order and
// returns the first that matches at the start of tag. Unresolved sentinels
// and anything without a leading four-digit year are Unparseable.
func Parse(tag string) Expression {
	raw := strings.TrimSpace(tag)
	if IsUnresolved(raw) {
		return Expression{Kind: KindUnparseable, Raw: raw}
	}
	if m := fullPattern.FindStringSubmatch(raw); m != nil {
		return Expression{Kind: KindFull, Raw: raw, Year: m[1], Month: m[2], Day: m[3]}
	}
	if m := monthPattern.FindStringSubmatch(raw); m != nil {
		return Expression{Kind: KindYearMonth, Raw: raw, Year: m[1], Month: m[2]}
	}
	if m := seasonPattern.FindStringSubmatch(raw); m != nil {
		months := append([]string(nil), seasonMonths[m[2]]...)
		return Expression{Kind: KindYearSeason, Raw: raw, Year: m[1], Season: m[2], Months: months}
	}
	if m := yearPattern.FindStringSubmatch(raw); m != nil {
		return Expression{Kind: KindYear, Raw: raw, Year: m[1]}
	}
	return Expression{Kind: KindUnparseable, Raw: raw}
}

// Parseable reports whether the expression names at least a year.
func (e Expression) Parseable() bool {
	return e.Kind != KindUnparseable
}

// CandidateMonths lists the two-digit months whose events may describe this
// date: the one month for Full and YearMonth, the season's three months, or
// all twelve for a bare year.
func (e Expression) CandidateMonths() []string {
	switch e.Kind {
	case KindFull, KindYearMonth:
		return []string{e.Month}
	case KindYearSeason:
		return append([]string(nil), e.Months...)
	case KindYear:
		return allMonths()
	default:
		return nil
	}
}

// HasDay reports whether a day-of-year page applies.
func (e Expression) HasDay() bool {
	return e.Kind == KindFull && e.Day != "" && e.Month != ""
}

func (e Expression) String() string {
	switch e.Kind {
	case KindFull:
		return fmt.Sprintf("%s-%s-%s", e.Year, e.Month, e.Day)
	case KindYearMonth:
		return fmt.Sprintf("%s-%s", e.Year, e.Month)
	case KindYearSeason:
		return fmt.Sprintf("%s-%s", e.Year, e.Season)
	case KindYear:
		return e.Year
	default:
		return "unparseable(" + e.Raw + ")"
	}
}
