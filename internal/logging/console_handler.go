package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimestampLayout = "2006-01-02 15:04:05.000"

// prettyHandler writes one line per record:
//
//	2026-01-02 15:04:05.000 WARN  [wikipedia] dQw4w9WgXcQ/match#3.0: month section missing year=1969 month=July
//
// component, video_id, stage and event are lifted into the prefix; every
// other attribute follows the message as key=value.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	var fields fieldList
	for _, attr := range h.attrs {
		fields.add(h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields.add(h.groups, attr)
		return true
	})

	lifted := map[string]string{}
	rest := fields.items[:0:0]
	for _, f := range fields.items {
		switch f.key {
		case FieldComponent, FieldVideoID, FieldStage, FieldEvent:
			lifted[f.key] = strings.TrimSpace(plainValue(f.value))
		default:
			rest = append(rest, f)
		}
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(timestamp.Local().Format(consoleTimestampLayout))
	buf.WriteByte(' ')
	fmt.Fprintf(&buf, "%-5s", levelLabel(record.Level))
	if c := lifted[FieldComponent]; c != "" {
		buf.WriteString(" [" + c + "]")
	}
	if subject := subjectOf(lifted[FieldVideoID], lifted[FieldStage], lifted[FieldEvent]); subject != "" {
		buf.WriteString(" " + subject + ":")
	}
	buf.WriteByte(' ')
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	for _, f := range rest {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(quotedValue(f.value))
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			buf.WriteString(" source=" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clone(h.attrs), attrs...)
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

// subjectOf renders "video/stage#event", dropping absent parts.
func subjectOf(videoID, stage, event string) string {
	var b strings.Builder
	b.WriteString(videoID)
	if stage != "" {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(stage)
	}
	if event != "" {
		b.WriteByte('#')
		b.WriteString(event)
	}
	return b.String()
}

type field struct {
	key   string
	value slog.Value
}

// fieldList flattens groups into dotted keys. A repeated key keeps its first
// position and takes the later value.
type fieldList struct {
	items []field
	index map[string]int
}

func (l *fieldList) add(prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix = append(slices.Clone(prefix), attr.Key)
		}
		for _, child := range attr.Value.Group() {
			l.add(prefix, child)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	if l.index == nil {
		l.index = map[string]int{}
	}
	if pos, ok := l.index[key]; ok {
		l.items[pos].value = attr.Value
		return
	}
	l.index[key] = len(l.items)
	l.items = append(l.items, field{key: key, value: attr.Value})
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimestampLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// quotedValue quotes strings that would break key=value parsing.
func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") || strings.ContainsFunc(s, func(r rune) bool { return r < ' ' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
