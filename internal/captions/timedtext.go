package captions

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

type timedTextDocument struct {
	XMLName xml.Name
	Texts   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Body  string `xml:",innerxml"`
	} `xml:"text"`
	Paragraphs []struct {
		T    string `xml:"t,attr"`
		D    string `xml:"d,attr"`
		Body string `xml:",innerxml"`
	} `xml:"body>p"`
}

// ParseTimedText decodes a YouTube timed-text document. Both the legacy
// <transcript><text start dur> layout (seconds) and format 3
// <timedtext><body><p t d> layout (milliseconds) are accepted. Entity
// references are unescaped twice because the service double-encodes them.
func ParseTimedText(r io.Reader) ([]TimedTextChunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read timed text: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc timedTextDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse timed text: %w", err)
	}

	chunks := make([]TimedTextChunk, 0, len(doc.Texts)+len(doc.Paragraphs))
	for i, text := range doc.Texts {
		start, err := parseSeconds(text.Start, 1)
		if err != nil {
			return nil, fmt.Errorf("timed text chunk %d: %w", i, err)
		}
		dur, _ := parseSeconds(text.Dur, 1)
		chunks = append(chunks, TimedTextChunk{Start: start, Duration: dur, Text: decodeBody(text.Body)})
	}
	for i, p := range doc.Paragraphs {
		start, err := parseSeconds(p.T, 1000)
		if err != nil {
			return nil, fmt.Errorf("timed text paragraph %d: %w", i, err)
		}
		dur, _ := parseSeconds(p.D, 1000)
		chunks = append(chunks, TimedTextChunk{Start: start, Duration: dur, Text: decodeBody(p.Body)})
	}
	return chunks, nil
}

func parseSeconds(value string, divisor float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("missing start time")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return f / divisor, nil
}

// decodeBody strips inline markup (format 3 wraps words in <s> tags) and
// resolves entity references.
func decodeBody(inner string) string {
	var b strings.Builder
	depth := 0
	for _, r := range inner {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	text := html.UnescapeString(b.String())
	return html.UnescapeString(text)
}
