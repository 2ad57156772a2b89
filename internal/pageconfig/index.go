package pageconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/nao1215/sitelint/internal/model"
)

// rawEntry is the on-disk form of one page config entry.
type rawEntry struct {
	Type            string   `json:"type"`
	RequiredSchemas []string `json:"requiredSchemas"`
}

// Index is a loaded page config. It is never modified after loading.
type Index struct {
	entries map[string]*model.PageConfigEntry
	ids     []string
}

// Empty returns an Index without entries. Every lookup misses, which
// turns the required schema rule into a no-op.
func Empty() *Index {
	return &Index{entries: make(map[string]*model.PageConfigEntry)}
}

// New builds an Index from entries keyed by page id.
func New(entries map[string]model.PageConfigEntry) (*Index, error) {
	idx := Empty()
	for key, e := range entries {
		if err := idx.add(key, e.ContentType, e.RequiredSchemaTypes); err != nil {
			return nil, err
		}
	}
	idx.finish()
	return idx, nil
}

// Load reads and validates the page config file at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read page config: %w", err)
	}
	return Parse(data)
}

// Parse validates and indexes page config JSON.
func Parse(data []byte) (*Index, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var raw map[string]rawEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	idx := Empty()
	for key, e := range raw {
		if err := idx.add(key, model.ContentType(e.Type), e.RequiredSchemas); err != nil {
			return nil, err
		}
	}
	idx.finish()
	return idx, nil
}

// LoadOrEmpty loads the page config at path. A missing or invalid file
// does not fail the run: an empty Index is returned together with a single
// warning for the report, and the problem is logged once.
func LoadOrEmpty(path string, logger *slog.Logger) (*Index, string) {
	if logger == nil {
		logger = slog.Default()
	}

	idx, err := Load(path)
	if err == nil {
		logger.Debug("page config loaded", "path", path, "entries", idx.Len())
		return idx, ""
	}

	var warning string
	if errors.Is(err, ErrNotFound) {
		warning = fmt.Sprintf("page config %s not found: required schema checks are disabled", path)
	} else {
		warning = fmt.Sprintf("page config %s ignored: %v", path, err)
	}
	logger.Warn("page config unavailable", "path", path, "error", err)
	return Empty(), warning
}

// NormalizeID converts a page config key to the form produced by the path
// normalizer: lower case, slash separated, without leading slash or .html.
func NormalizeID(key string) string {
	id := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(key, "\\", "/")))
	id = strings.Trim(id, "/")
	id = strings.TrimSuffix(id, ".html")
	if id == "" {
		return "index"
	}
	return id
}

func (i *Index) add(key string, contentType model.ContentType, required []string) error {
	id := NormalizeID(key)
	if _, dup := i.entries[id]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePageID, key)
	}
	i.entries[id] = &model.PageConfigEntry{
		PageID:              id,
		ContentType:         contentType,
		RequiredSchemaTypes: append([]string(nil), required...),
	}
	return nil
}

func (i *Index) finish() {
	i.ids = make([]string, 0, len(i.entries))
	for id := range i.entries {
		i.ids = append(i.ids, id)
	}
	sort.Strings(i.ids)
}

// Lookup returns the entry for pageID, or nil when the page has no entry.
func (i *Index) Lookup(pageID string) *model.PageConfigEntry {
	if i == nil {
		return nil
	}
	return i.entries[NormalizeID(pageID)]
}

// LookupFirst returns the entry of the first key that has one, in order.
// Keys usually come from canonical.Normalizer.PageKeys.
func (i *Index) LookupFirst(keys []string) *model.PageConfigEntry {
	for _, k := range keys {
		if e := i.Lookup(k); e != nil {
			return e
		}
	}
	return nil
}

// Len returns the number of entries.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}

// IDs returns the page ids in sorted order.
func (i *Index) IDs() []string {
	if i == nil {
		return nil
	}
	return append([]string(nil), i.ids...)
}

// Page is a scanned file and its page config keys, most specific first.
type Page struct {
	File string
	Keys []string
}

// Coverage classifies pages as configured or unconfigured and lists the
// entries no page matched. All lists are sorted.
func (i *Index) Coverage(pages []Page) model.Coverage {
	cov := model.Coverage{
		Configured:    []string{},
		Unconfigured:  []string{},
		UnusedEntries: []string{},
	}

	used := make(map[string]bool)
	for _, p := range pages {
		if e := i.LookupFirst(p.Keys); e != nil {
			used[e.PageID] = true
			cov.Configured = append(cov.Configured, p.File)
			continue
		}
		cov.Unconfigured = append(cov.Unconfigured, p.File)
	}
	for _, id := range i.IDs() {
		if !used[id] {
			cov.UnusedEntries = append(cov.UnusedEntries, id)
		}
	}

	sort.Strings(cov.Configured)
	sort.Strings(cov.Unconfigured)
	return cov
}
