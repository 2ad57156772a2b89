// Package walker finds the HTML files of a built site.
package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// DefaultExcludeDirs are directory names that never contain pages.
var DefaultExcludeDirs = []string{"node_modules", "i18n", "_i18n", "locales", ".git"}

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// File is an HTML file found under the scan root.
type File struct {
	// RelPath is slash separated and relative to the root.
	RelPath string

	// AbsPath is the path on disk.
	AbsPath string
}

// Walker walks a directory tree and collects *.html files.
type Walker struct {
	exclude map[string]bool
	logger  *slog.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithExcludeDirs adds directory names to skip wherever they appear.
func WithExcludeDirs(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				w.exclude[n] = true
			}
		}
	}
}

// WithLogger sets the logger for skipped entries.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Walker that skips DefaultExcludeDirs and hidden entries.
func New(opts ...Option) *Walker {
	w := &Walker{
		exclude: make(map[string]bool),
		logger:  slog.Default(),
	}
	WithExcludeDirs(DefaultExcludeDirs...)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk returns every HTML file under root sorted by relative path.
// Unreadable subdirectories are logged and skipped.
func (w *Walker) Walk(ctx context.Context, root string) ([]File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var files []File
	err = godirwalk.Walk(absRoot, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if osPathname == absRoot {
				return nil
			}

			name := de.Name()
			if de.IsDir() {
				if strings.HasPrefix(name, ".") || w.exclude[name] {
					w.logger.Debug("skipping directory", "path", osPathname)
					return godirwalk.SkipThis
				}
				return nil
			}
			if strings.HasPrefix(name, ".") || !isHTML(name) {
				return nil
			}
			if !de.IsRegular() && !de.IsSymlink() {
				return nil
			}

			rel, err := filepath.Rel(absRoot, osPathname)
			if err != nil {
				return err
			}
			files = append(files, File{
				RelPath: filepath.ToSlash(rel),
				AbsPath: osPathname,
			})
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			w.logger.Warn("cannot read directory entry", "path", osPathname, "error", err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

func isHTML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".html")
}
