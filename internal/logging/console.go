package logging

import (
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

	"github.com/dustin/go-humanize"
)

const (
	consoleTimeLayout = "2006-01-02 15:04:05"
	maxInfoFields     = 8
	maxErrorLen       = 200
)

// leadingKeys are printed first, in this order, on info lines and above.
var leadingKeys = []string{
	FieldAlert,
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	"ffprobe_code",
	"packet_count",
	"bucket_count",
	"bucket_seconds",
	"clamped_packets",
	"peak_kib_s",
	"elapsed",
	"output",
}

var fieldLabels = map[string]string{
	FieldAlert:        "Alert",
	FieldEventType:    "Event",
	FieldErrorHint:    "Hint",
	FieldImpact:       "Impact",
	"ffprobe_code":    "ffprobe Code",
	"peak_kib_s":      "Peak KiB/s",
	"clamped_packets": "Clamped",
	"bucket_count":    "Buckets",
}

type field struct {
	key   string
	value slog.Value
}

// consoleHandler prints a one-line header per record followed by an indented
// field list. Info and above show a curated subset; debug shows everything.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	source bool
	prefix string
	preset []field
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = slices.Clone(h.preset)
	for _, attr := range attrs {
		next.preset = appendFlat(next.preset, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := slices.Clone(h.preset)
	r.Attrs(func(attr slog.Attr) bool {
		fields = appendFlat(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var b strings.Builder
	h.writeHeader(&b, r, fields)
	b.WriteByte('\n')
	if r.Level < slog.LevelInfo {
		writeAllFields(&b, fields)
	} else {
		writeInfoFields(&b, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) writeHeader(b *strings.Builder, r slog.Record, fields []field) {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	fmt.Fprintf(b, " %-5s", levelLabel(r.Level))
	if component := lookup(fields, FieldComponent); component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := subjectOf(lookup(fields, FieldMediaPath), lookup(fields, FieldStep)); subject != "" {
		b.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" – " + msg)
	if h.source && r.PC != 0 {
		if src := r.Source(); src != nil && src.File != "" {
			b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
}

func writeAllFields(b *strings.Builder, fields []field) {
	for _, f := range fields {
		if f.key == FieldComponent {
			continue
		}
		b.WriteString("    " + f.key + "=" + quoted(f.value) + "\n")
	}
}

func writeInfoFields(b *strings.Builder, fields []field) {
	ordered := make([]field, 0, len(fields))
	for _, key := range leadingKeys {
		if i := slices.IndexFunc(fields, func(f field) bool { return f.key == key }); i >= 0 {
			ordered = append(ordered, fields[i])
		}
	}
	for _, f := range fields {
		if !slices.Contains(leadingKeys, f.key) {
			ordered = append(ordered, f)
		}
	}

	shown, hidden := 0, 0
	for _, f := range ordered {
		switch {
		case inHeader(f.key):
		case debugOnly(f.key), shown >= maxInfoFields:
			hidden++
		default:
			shown++
			b.WriteString("    - " + labelFor(f.key) + ": " + humanValue(f.key, f.value) + "\n")
		}
	}
	if hidden > 0 {
		fmt.Fprintf(b, "    + %d more %s hidden\n", hidden, plural(hidden, "field"))
	}
}

func appendFlat(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = joinKey(prefix, attr.Key)
		}
		for _, child := range attr.Value.Group() {
			dst = appendFlat(dst, inner, child)
		}
		return dst
	}
	return append(dst, field{key: joinKey(prefix, attr.Key), value: attr.Value})
}

// lastWins keeps the first position of each key with its latest value.
func lastWins(fields []field) []field {
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i := slices.IndexFunc(out, func(o field) bool { return o.key == f.key }); i >= 0 {
			out[i].value = f.value
			continue
		}
		out = append(out, f)
	}
	return out
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func lookup(fields []field, key string) string {
	for _, f := range fields {
		if f.key == key {
			return plain(f.value)
		}
	}
	return ""
}

// subjectOf renders "clip.mkv (probe)" from the media path and step.
func subjectOf(mediaPath, step string) string {
	name := strings.TrimSpace(mediaPath)
	if name != "" {
		name = filepath.Base(name)
	}
	step = strings.TrimSpace(step)
	switch {
	case name != "" && step != "":
		return name + " (" + step + ")"
	case name != "":
		return name
	default:
		return step
	}
}

func inHeader(key string) bool {
	return key == FieldComponent || key == FieldMediaPath || key == FieldStep
}

func debugOnly(key string) bool {
	switch key {
	case FieldCorrelationID, "command", "args", "selector":
		return true
	}
	return strings.HasSuffix(key, "_id") || strings.HasSuffix(key, "_dir")
}

func labelFor(key string) string {
	if label, ok := fieldLabels[key]; ok {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '.' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// humanValue formats v for info lines: sizes in IEC units, durations rounded,
// booleans as yes/no and long errors truncated.
func humanValue(key string, v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		if isSizeKey(key) && v.Int64() >= 0 {
			return humanize.IBytes(uint64(v.Int64()))
		}
	case slog.KindUint64:
		if isSizeKey(key) {
			return humanize.IBytes(v.Uint64())
		}
	case slog.KindDuration:
		return roundDuration(v.Duration())
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	s := plain(v)
	if key == "error" && len(s) > maxErrorLen {
		s = s[:maxErrorLen] + "…"
	}
	return s
}

func isSizeKey(key string) bool {
	return key == "size" || strings.HasSuffix(key, "_bytes") || strings.HasSuffix(key, "_size")
}

func roundDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	case d < time.Minute:
		return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
	default:
		return d.Round(time.Second).String()
	}
}

// plain returns the unquoted text of v.
func plain(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// quoted is plain with ambiguous strings quoted for key=value output.
func quoted(v slog.Value) string {
	s := plain(v)
	if v.Kind() != slog.KindString && v.Kind() != slog.KindAny {
		return s
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
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

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
