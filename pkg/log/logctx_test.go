package log

// Тесты pkg/log: round-trip Into/From, фолбэк на slog.Default(), обогащение через With.
// Тесты меняют slog.Default(), поэтому без t.Parallel().

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func silent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recHandler запоминает атрибуты, накопленные через WithAttrs.
type recHandler struct {
	attrs []slog.Attr
}

func (h *recHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h *recHandler) Handle(context.Context, slog.Record) error { return nil }
func (h *recHandler) WithGroup(string) slog.Handler              { return h }
func (h *recHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recHandler{attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func TestFrom_DefaultWhenEmpty(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := silent()
	slog.SetDefault(def)

	require.Same(t, def, From(context.Background()))

	var nilLogger *slog.Logger
	require.Same(t, def, From(context.WithValue(context.Background(), ctxKey{}, nilLogger)))
	require.Same(t, def, From(context.WithValue(context.Background(), ctxKey{}, 42)))
}

func TestIntoFrom_RoundTrip(t *testing.T) {
	l := silent()
	ctx := Into(context.Background(), l)
	require.Same(t, l, From(ctx))

	// Логгеры структурно одинаковы, поэтому сравниваем указатели.
	child := Into(ctx, silent())
	require.NotSame(t, l, From(child))
	require.Same(t, l, From(ctx))
}

func TestWith_EnrichesAndStores(t *testing.T) {
	h := &recHandler{}
	ctx := Into(context.Background(), slog.New(h))

	ctx, l := With(ctx, "focal_id", "abc")
	require.Same(t, l, From(ctx))

	got, ok := l.Handler().(*recHandler)
	require.True(t, ok)
	require.Len(t, got.attrs, 1)
	require.Equal(t, "focal_id", got.attrs[0].Key)
	require.Equal(t, "abc", got.attrs[0].Value.String())

	// Исходный логгер не изменился.
	require.Empty(t, h.attrs)
}
