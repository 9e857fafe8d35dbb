package logger

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// zlHandler lets packages that log through log/slog write into the service
// zerolog logger, picking up request fields from the context.
type zlHandler struct {
	zl     *zerolog.Logger
	attr   []slog.Attr
	prefix string
}

func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&zlHandler{zl: zl})
}

func toZerolog(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l < slog.LevelWarn:
		return zerolog.InfoLevel
	case l < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (h *zlHandler) Enabled(_ context.Context, l slog.Level) bool {
	lvl := toZerolog(l)
	return lvl >= h.zl.GetLevel() && lvl >= zerolog.GlobalLevel()
}

func (h *zlHandler) Handle(ctx context.Context, r slog.Record) error {
	base := FromContext(ctx, h.zl)
	ev := base.WithLevel(toZerolog(r.Level))
	if ev == nil {
		return nil
	}

	// attach accumulated attrs
	for _, a := range h.attr {
		ev = addAttr(ev, "", a)
	}
	// attach record attrs
	r.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.prefix, a)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (h *zlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attr = append([]slog.Attr(nil), h.attr...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		cp.attr = append(cp.attr, a)
	}
	return &cp
}

func (h *zlHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func addAttr(ev *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key
	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(key, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, a.Value.Float64())
	case slog.KindBool:
		return ev.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		return ev.Dur(key, a.Value.Duration())
	case slog.KindGroup:
		gp := prefix
		if a.Key != "" {
			gp = key + "."
		}
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, gp, ga)
		}
		return ev
	default:
		if err, ok := a.Value.Any().(error); ok {
			return ev.AnErr(key, err)
		}
		return ev.Interface(key, a.Value.Any())
	}
}
