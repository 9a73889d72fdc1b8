package logbuf

import (
	"context"
	"log/slog"
)

// RunIDKey is the slog attribute key the handler promotes into Entry.RunID
// so log queries can be scoped to a single workflow run.
const RunIDKey = "run_id"

// Handler is an slog.Handler that captures every record into a Ring and
// delegates to an inner handler for normal output.
type Handler struct {
	inner  slog.Handler
	ring   *Ring
	attrs  []slog.Attr
	groups []string
}

// NewHandler wraps inner so records are also retained in ring.
func NewHandler(inner slog.Handler, ring *Ring) *Handler {
	return &Handler{inner: inner, ring: ring}
}

// Enabled always reports true. The ring captures every level; the inner
// handler applies its own filter at Handle time.
func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	e := Entry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
	}

	attrs := make(map[string]any)
	collect := func(a slog.Attr) {
		key := a.Key
		for _, g := range h.groups {
			key = g + "." + key
		}
		val := flatten(a.Value)
		if key == RunIDKey {
			if s, ok := val.(string); ok {
				e.RunID = s
				return
			}
		}
		attrs[key] = val
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})
	if len(attrs) > 0 {
		e.Attrs = attrs
	}

	h.ring.Append(e)

	if h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

// flatten resolves slog values into JSON-safe types. Errors become their
// string form so they do not marshal to an empty object.
func flatten(v slog.Value) any {
	v = v.Resolve()
	raw := v.Any()
	if err, ok := raw.(error); ok {
		return err.Error()
	}
	return raw
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:  h.inner.WithAttrs(attrs),
		ring:   h.ring,
		attrs:  append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		groups: h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:  h.inner.WithGroup(name),
		ring:   h.ring,
		attrs:  h.attrs,
		groups: append(h.groups[:len(h.groups):len(h.groups)], name),
	}
}
