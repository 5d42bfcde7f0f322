package runner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// DefaultLogCapacity is the number of log entries kept per test.
const DefaultLogCapacity = 500

// LogEntry is a captured log record.
type LogEntry struct {
	Time    time.Time  `json:"time"`
	Level   slog.Level `json:"level"`
	Message string     `json:"message"`
	Attrs   string     `json:"attrs,omitempty"`
}

func (e LogEntry) String() string {
	s := fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05.000"), e.Level, e.Message)
	if e.Attrs != "" {
		s += " " + e.Attrs
	}
	return s
}

// LogBuffer keeps the most recent log entries of a test.
type LogBuffer struct {
	mu       sync.Mutex
	entries  []LogEntry
	next     int
	size     int
	received int
}

// NewLogBuffer creates a buffer for capacity entries.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		panic("capacity must be greater than 0")
	}
	return &LogBuffer{entries: make([]LogEntry, capacity)}
}

// Add stores an entry, overwriting the oldest one when full.
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.size < len(b.entries) {
		b.size++
	}
	b.received++
}

// Entries returns the kept entries, oldest first.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]LogEntry, b.size)
	start := (b.next - b.size + len(b.entries)) % len(b.entries)
	for i := range b.size {
		result[i] = b.entries[(start+i)%len(b.entries)]
	}
	return result
}

// Dropped returns how many entries were overwritten.
func (b *LogBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received - b.size
}

// captureTarget is shared by a handler and all handlers derived from it.
type captureTarget struct {
	buffer atomic.Pointer[LogBuffer]
}

// CaptureHandler forwards records to next and copies them into the buffer of the current test.
type CaptureHandler struct {
	next   slog.Handler
	target *captureTarget
	level  slog.Leveler

	attrs  []slog.Attr
	groups []string
}

// NewCaptureHandler wraps next. Records at or above level are captured, independent of next's level.
func NewCaptureHandler(next slog.Handler, level slog.Leveler) *CaptureHandler {
	return &CaptureHandler{
		next:   next,
		target: &captureTarget{},
		level:  level,
	}
}

// Capture directs captured records into buffer until the returned function is called.
func (h *CaptureHandler) Capture(buffer *LogBuffer) (stop func()) {
	h.target.buffer.Store(buffer)
	return func() {
		h.target.buffer.CompareAndSwap(buffer, nil)
	}
}

func (h *CaptureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.capturing(level) || h.next.Enabled(ctx, level)
}

func (h *CaptureHandler) capturing(level slog.Level) bool {
	return h.target.buffer.Load() != nil && level >= h.level.Level()
}

func (h *CaptureHandler) Handle(ctx context.Context, record slog.Record) error {
	if buffer := h.target.buffer.Load(); buffer != nil && record.Level >= h.level.Level() {
		buffer.Add(h.entry(record))
	}
	if h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *CaptureHandler) entry(record slog.Record) LogEntry {
	// Handler attributes come before record attributes
	attrs := []slog.Attr{}
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})
	for i := range h.groups {
		attrs = []slog.Attr{
			slog.Group(h.groups[len(h.groups)-1-i], lo.ToAnySlice(attrs)...),
		}
	}
	all := append(slices.Clone(h.attrs), attrs...)

	return LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   formatAttrs("", all),
	}
}

func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CaptureHandler{
		next:   h.next.WithAttrs(attrs),
		target: h.target,
		level:  h.level,
		attrs:  appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups: h.groups,
	}
}

func (h *CaptureHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &CaptureHandler{
		next:   h.next.WithGroup(name),
		target: h.target,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(slices.Clone(h.groups), name),
	}
}

func formatAttrs(prefix string, attrs []slog.Attr) string {
	var parts []string
	for _, attr := range attrs {
		attr.Value = attr.Value.Resolve()
		key := attr.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		if attr.Value.Kind() == slog.KindGroup {
			if s := formatAttrs(key, attr.Value.Group()); s != "" {
				parts = append(parts, s)
			}
			continue
		}
		value := attr.Value.String()
		if strings.ContainsAny(value, " \t\n\"=") {
			value = fmt.Sprintf("%q", value)
		}
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, " ")
}

func appendAttrsToGroup(groups []string, actualAttrs []slog.Attr, newAttrs ...slog.Attr) []slog.Attr {
	actualAttrs = slices.Clone(actualAttrs)

	if len(groups) == 0 {
		return append(actualAttrs, newAttrs...)
	}

	for i := range actualAttrs {
		attr := actualAttrs[i]
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actualAttrs[i] = slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), newAttrs...))...)
			return actualAttrs
		}
	}

	return append(
		actualAttrs,
		slog.Group(
			groups[0],
			lo.ToAnySlice(appendAttrsToGroup(groups[1:], []slog.Attr{}, newAttrs...))...,
		),
	)
}
