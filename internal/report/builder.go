package report

import (
	"sort"
	"time"

	"github.com/nao1215/sitelint/internal/model"
)

// DefaultTopOffenders is the number of files listed in the top offenders
// ranking when none is configured.
const DefaultTopOffenders = 10

// buildOptions holds the settings that are not derived from the results.
type buildOptions struct {
	root           string
	origin         string
	strict         bool
	topOffenders   int
	configWarnings []string
	coverage       *model.Coverage
	now            func() time.Time
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithRoot records the scanned directory on the report.
func WithRoot(root string) BuildOption {
	return func(o *buildOptions) {
		o.root = root
	}
}

// WithOrigin records the canonical origin on the report.
func WithOrigin(origin string) BuildOption {
	return func(o *buildOptions) {
		o.origin = origin
	}
}

// WithStrict records whether strict mode was on.
func WithStrict(strict bool) BuildOption {
	return func(o *buildOptions) {
		o.strict = strict
	}
}

// WithTopOffenders sets the length of the top offenders ranking.
// Zero disables the ranking; negative values keep the default.
func WithTopOffenders(n int) BuildOption {
	return func(o *buildOptions) {
		if n >= 0 {
			o.topOffenders = n
		}
	}
}

// WithConfigWarnings adds top-level warnings, such as an unreadable page
// config. Empty strings are ignored.
func WithConfigWarnings(warnings ...string) BuildOption {
	return func(o *buildOptions) {
		for _, w := range warnings {
			if w != "" {
				o.configWarnings = append(o.configWarnings, w)
			}
		}
	}
}

// WithCoverage attaches the page config coverage audit.
func WithCoverage(c model.Coverage) BuildOption {
	return func(o *buildOptions) {
		o.coverage = &c
	}
}

// WithClock overrides the time source for GeneratedAt.
func WithClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) {
		o.now = now
	}
}

// Build aggregates per-file results into a ScanReport.
//
// Results are sorted by path before anything is counted, so the report is
// identical no matter in which order files were processed. Files that
// could not be read are counted in FileErrors and never as valid or
// invalid.
func Build(results []*model.FileResult, opts ...BuildOption) *model.ScanReport {
	o := &buildOptions{
		topOffenders: DefaultTopOffenders,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	sorted := make([]*model.FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].File < sorted[j].File
	})

	report := &model.ScanReport{
		Root:              o.root,
		Origin:            o.origin,
		Strict:            o.strict,
		GeneratedAt:       o.now().UTC(),
		Total:             len(sorted),
		PerCategoryCounts: make(map[model.Category]int),
		ConfigWarnings:    o.configWarnings,
		Results:           sorted,
	}

	for _, r := range sorted {
		switch r.Status {
		case model.FileStatusError:
			report.FileErrors++
		case model.FileStatusInvalid:
			report.Invalid++
		default:
			report.Valid++
		}
		if r.Fixed {
			report.Fixed++
		}

		errs, warns := model.CountBySeverity(r.Violations)
		report.Errors += errs
		report.Warnings += warns
		for _, v := range r.Violations {
			report.PerCategoryCounts[v.Category]++
		}
	}

	report.TopOffenders = topOffenders(sorted, o.topOffenders)

	if o.coverage != nil {
		report.Coverage = *o.coverage
	} else {
		report.Coverage = coverageFromResults(sorted)
	}

	return report
}

// topOffenders ranks files by error count, then warning count, then path.
// Files without violations are never listed.
func topOffenders(results []*model.FileResult, limit int) []model.Offender {
	if limit == 0 {
		return nil
	}

	var offenders []model.Offender
	for _, r := range results {
		errs, warns := model.CountBySeverity(r.Violations)
		if errs+warns == 0 {
			continue
		}
		offenders = append(offenders, model.Offender{
			File:     r.File,
			Errors:   errs,
			Warnings: warns,
		})
	}

	sort.SliceStable(offenders, func(i, j int) bool {
		a, b := offenders[i], offenders[j]
		if a.Errors != b.Errors {
			return a.Errors > b.Errors
		}
		if a.Warnings != b.Warnings {
			return a.Warnings > b.Warnings
		}
		return a.File < b.File
	})

	if len(offenders) > limit {
		offenders = offenders[:limit]
	}
	return offenders
}

// coverageFromResults derives the configured and unconfigured page lists
// from the results alone. Unused config entries are unknown here.
func coverageFromResults(results []*model.FileResult) model.Coverage {
	c := model.Coverage{
		Configured:    []string{},
		Unconfigured:  []string{},
		UnusedEntries: []string{},
	}
	for _, r := range results {
		if r.Status == model.FileStatusError || r.PageID == "" {
			continue
		}
		if r.Configured {
			c.Configured = append(c.Configured, r.PageID)
		} else {
			c.Unconfigured = append(c.Unconfigured, r.PageID)
		}
	}
	sort.Strings(c.Configured)
	sort.Strings(c.Unconfigured)
	return c
}
