package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credential material in log output: OAuth bearer tokens,
// issued API keys, and values logged under secret-bearing attribute keys.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			// Authorization header values.
			{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
			// Issued proxy keys keep their routing prefix for correlation.
			{regexp.MustCompile(`\b(callisto-[a-zA-Z0-9]{8})[a-zA-Z0-9]+\b`), "$1***"},
			// Anthropic-style secret keys.
			{regexp.MustCompile(`\bsk-[a-zA-Z0-9\-_]{8,}\b`), "sk-***"},
			// Inline password assignments.
			{regexp.MustCompile(`(password|passwd|pwd)[:=]\s*\S+`), "$1: ***"},
		},
	}
}

// RedactString masks credential material in a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, p := range r.patterns {
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// RedactValue masks an attribute value whose key marks it as sensitive.
// A short prefix survives so operators can still correlate entries.
func (r *Redactor) RedactValue(value slog.Value) slog.Value {
	s := value.String()
	if s == "" {
		return slog.StringValue("")
	}
	if len(s) <= 4 {
		return slog.StringValue("***")
	}
	return slog.StringValue(s[:4] + "***")
}

// IsSensitiveKey reports whether an attribute key names credential
// material that must never be logged verbatim.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	sensitive := []string{
		"password", "passwd", "pwd",
		"secret", "token", "api_key", "apikey",
		"authorization", "credential",
	}
	for _, s := range sensitive {
		if strings.Contains(lowerKey, s) {
			return true
		}
	}
	return false
}

// RedactHandler is a slog.Handler that masks credential material in
// attributes before delegating to the wrapped handler.
type RedactHandler struct {
	inner    slog.Handler
	redactor *Redactor
}

// NewRedactHandler wraps a handler with credential redaction.
func NewRedactHandler(inner slog.Handler, redactor *Redactor) *RedactHandler {
	return &RedactHandler{inner: inner, redactor: redactor}
}

// Enabled implements slog.Handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		clean.AddAttrs(h.redactAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

// WithAttrs implements slog.Handler.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		redacted[i] = h.redactAttr(attr)
	}
	return &RedactHandler{inner: h.inner.WithAttrs(redacted), redactor: h.redactor}
}

// WithGroup implements slog.Handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactHandler) redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, a := range group {
			redacted[i] = h.redactAttr(a)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	}

	if h.redactor.IsSensitiveKey(attr.Key) {
		return slog.Attr{Key: attr.Key, Value: h.redactor.RedactValue(attr.Value)}
	}

	if attr.Value.Kind() == slog.KindString {
		s := attr.Value.String()
		if masked := h.redactor.RedactString(s); masked != s {
			return slog.Attr{Key: attr.Key, Value: slog.StringValue(masked)}
		}
	}

	return attr
}
