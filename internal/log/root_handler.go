package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// pathKeys contains attribute keys whose values are file system paths.
var pathKeys = map[string]bool{
	"path":     true,
	"file":     true,
	"abs_path": true,
	"dir":      true,
}

// RootHandler wraps an slog.Handler to rewrite absolute paths below the
// scan root as slash separated paths relative to it. Paths outside the
// root and non-path attributes are passed through unchanged.
type RootHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// root is the cleaned absolute scan root. Empty disables rewriting.
	root string
}

// NewRootHandler creates a new RootHandler wrapping the given handler.
// If handler is nil, the returned RootHandler will use slog.Default().Handler().
// A relative root is made absolute; an empty root disables rewriting.
func NewRootHandler(handler slog.Handler, root string) *RootHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		root = filepath.Clean(root)
	}
	return &RootHandler{handler: handler, root: root}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RootHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's path attributes and passes it to the
// underlying handler.
func (h *RootHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rewritten before being added.
func (h *RootHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &RootHandler{handler: h.handler.WithAttrs(rewritten), root: h.root}
}

// WithGroup returns a new handler with the given group name.
func (h *RootHandler) WithGroup(name string) slog.Handler {
	return &RootHandler{handler: h.handler.WithGroup(name), root: h.root}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *RootHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	if h.root == "" || a.Value.Kind() != slog.KindString || !pathKeys[strings.ToLower(a.Key)] {
		return a
	}
	if rel, ok := h.relative(a.Value.String()); ok {
		return slog.String(a.Key, rel)
	}
	return a
}

// relative returns p relative to the root when p is an absolute path
// inside it.
func (h *RootHandler) relative(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		return "", false
	}
	rel, err := filepath.Rel(h.root, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// level returns Debug in verbose mode and Warn otherwise.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a new slog.Logger writing text to w.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//   - root: The scan root that paths are made relative to; may be empty
func NewLogger(w io.Writer, verbose bool, root string) *slog.Logger {
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewRootHandler(textHandler, root))
}

// NewJSONLogger creates a new slog.Logger that outputs JSON format.
// Useful for structured log aggregation in CI.
func NewJSONLogger(w io.Writer, verbose bool, root string) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewRootHandler(jsonHandler, root))
}
