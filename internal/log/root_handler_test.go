package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

// TestRootHandler_RewritesPaths tests that paths under the root become relative.
func TestRootHandler_RewritesPaths(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "public")

	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{
			name:  "path under root",
			key:   "path",
			value: filepath.Join(root, "blog", "post.html"),
			want:  "path=blog/post.html",
		},
		{
			name:  "file key",
			key:   "file",
			value: filepath.Join(root, "index.html"),
			want:  "file=index.html",
		},
		{
			name:  "uppercase key",
			key:   "PATH",
			value: filepath.Join(root, "a.html"),
			want:  "PATH=a.html",
		},
		{
			name:  "root itself",
			key:   "dir",
			value: root,
			want:  "dir=.",
		},
		{
			name:  "relative path is unchanged",
			key:   "file",
			value: "blog/post.html",
			want:  "file=blog/post.html",
		},
		{
			name:  "sibling of root is unchanged",
			key:   "path",
			value: root + "-old/index.html",
			want:  "path=" + root + "-old/index.html",
		},
		{
			name:  "non path key is unchanged",
			key:   "error",
			value: filepath.Join(root, "x.html"),
			want:  "error=" + filepath.Join(root, "x.html"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, false, root)
			logger.Warn("test", tt.key, tt.value)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, buf.String())
			}
		})
	}
}

// TestRootHandler_EmptyRoot tests that an empty root disables rewriting.
func TestRootHandler_EmptyRoot(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "index.html")
	var buf bytes.Buffer
	NewLogger(&buf, false, "").Warn("test", "path", abs)

	if !strings.Contains(buf.String(), abs) {
		t.Errorf("expected unchanged path in %q", buf.String())
	}
}

// TestRootHandler_LogLevels tests the verbose switch.
func TestRootHandler_LogLevels(t *testing.T) {
	t.Parallel()

	t.Run("quiet logs warnings only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false, "")
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		out := buf.String()
		if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
			t.Errorf("debug and info should be filtered: %q", out)
		}
		if !strings.Contains(out, "warn message") {
			t.Error("expected warn message")
		}
	})

	t.Run("verbose logs debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, true, "").Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug message in verbose mode")
		}
	})
}

// TestRootHandler_WithAttrs tests that attributes added with With are rewritten.
func TestRootHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, root).With("file", filepath.Join(root, "faq.html"))
	logger.Warn("test")

	if !strings.Contains(buf.String(), "file=faq.html") {
		t.Errorf("expected rewritten attr, got %q", buf.String())
	}
}

// TestRootHandler_WithGroup tests rewriting inside groups.
func TestRootHandler_WithGroup(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, root)
	logger.WithGroup("scan").Warn("test",
		slog.Group("input", slog.String("path", filepath.Join(root, "a", "b.html"))),
	)

	if !strings.Contains(buf.String(), "scan.input.path=a/b.html") {
		t.Errorf("expected rewritten grouped attr, got %q", buf.String())
	}
}

// TestNewJSONLogger tests the JSON logger.
func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	var buf bytes.Buffer
	NewJSONLogger(&buf, false, root).Warn("fixed file", "path", filepath.Join(root, "faq.html"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["path"] != "faq.html" {
		t.Errorf("expected relative path, got %v", entry["path"])
	}
	if entry["msg"] != "fixed file" {
		t.Errorf("unexpected message %v", entry["msg"])
	}
}

// TestNewRootHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewRootHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewRootHandler(nil, "")
	if h.handler == nil {
		t.Error("expected default handler")
	}
}
