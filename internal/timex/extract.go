package timex

import (
	"encoding/xml"
	"regexp"
	"strings"

	"timelines/internal/services"
)

var (
	timeMLPattern = regexp.MustCompile(`(?s)<TimeML>(.*)</TimeML>`)
	timexPattern  = regexp.MustCompile(`<TIMEX3[^>]*>[^<]*</TIMEX3>`)
)

// Annotation is one DATE expression found in a tagged line. Value is the
// normalized date tag ("2011-03-15", "2011-SU", "PRESENT_REF") and Text is
// the surface text the tagger wrapped. Err is set when the markup could not
// be decoded; Raw always holds the original tag.
type Annotation struct {
	Value string
	Text  string
	Raw   string
	Err   error
}

// Malformed reports whether the tag failed to decode.
func (a Annotation) Malformed() bool { return a.Err != nil }

type timex3 struct {
	XMLName xml.Name `xml:"TIMEX3"`
	TID     string   `xml:"tid,attr"`
	Type    string   `xml:"type,attr"`
	Value   string   `xml:"value,attr"`
	Text    string   `xml:",chardata"`
}

// ExtractBody returns the non-empty lines inside the TimeML element of a
// tagger output document. ok is false when no TimeML element is present.
func ExtractBody(output string) (lines []string, ok bool) {
	m := timeMLPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, false
	}
	for _, line := range strings.Split(m[1], "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, true
}

// Extract returns the DATE annotations in one tagged line, in order. Tags of
// other types (TIME, DURATION, SET) are dropped, as are DATE tags with an
// empty value or text. A tag that is not well-formed XML is returned with
// Err wrapping services.ErrMalformedAnnotation.
func Extract(line string) []Annotation {
	var out []Annotation
	for _, raw := range timexPattern.FindAllString(line, -1) {
		var tag timex3
		if err := xml.Unmarshal([]byte(raw), &tag); err != nil {
			out = append(out, Annotation{
				Raw: raw,
				Err: services.Wrap(services.ErrMalformedAnnotation, "timex", "decode", raw, err),
			})
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(tag.Type), "DATE") {
			continue
		}
		value := strings.TrimSpace(tag.Value)
		text := strings.TrimSpace(tag.Text)
		if value == "" || text == "" {
			continue
		}
		out = append(out, Annotation{Value: value, Text: text, Raw: raw})
	}
	return out
}

// ExtractAll applies Extract to every line.
func ExtractAll(lines []string) [][]Annotation {
	out := make([][]Annotation, len(lines))
	for i, line := range lines {
		out[i] = Extract(line)
	}
	return out
}
