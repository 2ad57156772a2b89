package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/extract"
	"github.com/nao1215/sitelint/internal/fix"
	"github.com/nao1215/sitelint/internal/model"
	"github.com/nao1215/sitelint/internal/pageconfig"
	"github.com/nao1215/sitelint/internal/rules"
)

// DefaultMaxFileSize is the largest HTML file that is read.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB

// ErrFileTooLarge is returned by ReadStep for files above the size limit.
var ErrFileTooLarge = errors.New("file too large")

// ReadStep reads the file from disk and decodes it to UTF-8.
type ReadStep struct {
	maxFileSize int64
	logger      *slog.Logger
}

// ReadStepOption configures a ReadStep.
type ReadStepOption func(*ReadStep)

// WithMaxFileSize sets the largest file that is read. Non-positive values
// keep the default.
func WithMaxFileSize(size int64) ReadStepOption {
	return func(s *ReadStep) {
		if size > 0 {
			s.maxFileSize = size
		}
	}
}

// WithReadLogger sets a custom logger for the read step.
func WithReadLogger(logger *slog.Logger) ReadStepOption {
	return func(s *ReadStep) {
		s.logger = logger
	}
}

// NewReadStep creates a new read step.
func NewReadStep(opts ...ReadStepOption) *ReadStep {
	s := &ReadStep{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ReadStep) Name() string {
	return "read"
}

// Do reads result.AbsPath into a new PageDocument.
func (s *ReadStep) Do(_ context.Context, result *model.FileResult) error {
	f, err := os.Open(result.AbsPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read only

	raw, err := io.ReadAll(io.LimitReader(f, s.maxFileSize+1))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if int64(len(raw)) > s.maxFileSize {
		return fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxFileSize)
	}

	content, encoding := extract.Decode(raw, "")
	if encoding != "utf-8" {
		s.logger.Debug("decoded non UTF-8 file", "file", result.File, "encoding", encoding)
		result.Encoding = encoding
	}

	result.Document = &model.PageDocument{
		RelativePath: result.File,
		RawContent:   content,
	}
	return nil
}

// ExtractStep extracts headings, structured data and the canonical link.
type ExtractStep struct {
	normalizer *canonical.Normalizer
}

// NewExtractStep creates a new extract step. n derives the page URL.
func NewExtractStep(n *canonical.Normalizer) *ExtractStep {
	return &ExtractStep{normalizer: n}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do replaces result.Document with its extracted form.
func (s *ExtractStep) Do(_ context.Context, result *model.FileResult) error {
	if result.Document == nil {
		return errors.New("extract: no document read")
	}
	doc := extract.Document(result.File, result.Document.RawContent)

	result.Document = doc
	result.URL = s.normalizer.Normalize(result.File)
	result.Hash = doc.Hash
	result.DeclaredSchemaTypes = doc.DeclaredSchemaTypes
	result.SchemaParseErrors = doc.SchemaParseErrors
	return nil
}

// EvaluateStep runs the rule evaluator against the page and its page
// config entry.
type EvaluateStep struct {
	evaluator  *rules.Evaluator
	index      *pageconfig.Index
	normalizer *canonical.Normalizer
}

// NewEvaluateStep creates a new evaluate step. index may be empty but not nil.
func NewEvaluateStep(evaluator *rules.Evaluator, index *pageconfig.Index, n *canonical.Normalizer) *EvaluateStep {
	if index == nil {
		index = pageconfig.Empty()
	}
	return &EvaluateStep{
		evaluator:  evaluator,
		index:      index,
		normalizer: n,
	}
}

// Name returns the step name.
func (s *EvaluateStep) Name() string {
	return "evaluate"
}

// Do sets the violations and status of result.
func (s *EvaluateStep) Do(_ context.Context, result *model.FileResult) error {
	if result.Document == nil {
		return errors.New("evaluate: no document extracted")
	}

	keys := s.normalizer.PageKeys(result.File)
	result.PageID = keys[0]
	result.Config = s.index.LookupFirst(keys)
	result.Configured = result.Config != nil
	if result.Configured {
		result.PageID = result.Config.PageID
	}

	result.Violations = s.evaluator.Evaluate(result.Document, result.Config)
	result.Classify()
	return nil
}

// FixStep applies idempotent fixes. Without write it only computes the
// canonical status and the content a fix would produce.
type FixStep struct {
	fixer    *fix.Fixer
	extract  *ExtractStep
	evaluate *EvaluateStep
	write    bool
	logger   *slog.Logger
}

// FixStepOption configures a FixStep.
type FixStepOption func(*FixStep)

// WithWrite makes the fix step write changed content back to disk.
func WithWrite(write bool) FixStepOption {
	return func(s *FixStep) {
		s.write = write
	}
}

// WithFixLogger sets a custom logger for the fix step.
func WithFixLogger(logger *slog.Logger) FixStepOption {
	return func(s *FixStep) {
		s.logger = logger
	}
}

// NewFixStep creates a new fix step. After writing a file, the page is
// extracted and evaluated again with the given steps so the result
// describes the file as it is on disk.
func NewFixStep(fixer *fix.Fixer, extractStep *ExtractStep, evaluateStep *EvaluateStep, opts ...FixStepOption) *FixStep {
	s := &FixStep{
		fixer:    fixer,
		extract:  extractStep,
		evaluate: evaluateStep,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *FixStep) Name() string {
	return "fix"
}

// Do fixes the page and, in write mode, persists the new content.
func (s *FixStep) Do(ctx context.Context, result *model.FileResult) error {
	if result.Document == nil {
		return errors.New("fix: no document extracted")
	}

	res := s.fixer.Apply(result.Document, result.Violations)
	result.CanonicalStatus = res.CanonicalStatus
	if !res.Changed {
		return nil
	}
	result.FixedContent = res.NewContent
	result.FixesApplied = res.Applied
	if !s.write {
		return nil
	}

	data, err := extract.Encode(res.NewContent, result.Encoding)
	if err != nil {
		s.logger.Warn("fix not written", "file", result.File, "encoding", result.Encoding, "error", err)
		return nil
	}

	info, err := os.Stat(result.AbsPath)
	if err != nil {
		return fmt.Errorf("stat before fix: %w", err)
	}
	if err := os.WriteFile(result.AbsPath, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write fix: %w", err)
	}
	s.logger.Info("fixed file", "file", result.File, "fixes", res.Applied)

	result.Fixed = true
	result.Document = &model.PageDocument{
		RelativePath: result.File,
		RawContent:   res.NewContent,
	}
	if err := s.extract.Do(ctx, result); err != nil {
		return err
	}
	return s.evaluate.Do(ctx, result)
}

// Components holds the shared, read-only objects every file pipeline uses.
type Components struct {
	Normalizer  *canonical.Normalizer
	Evaluator   *rules.Evaluator
	Index       *pageconfig.Index
	Fixer       *fix.Fixer
	WriteFixes  bool
	MaxFileSize int64
	Logger      *slog.Logger
}

// DefaultPipeline creates a pipeline with the read, extract, evaluate and
// fix steps. Components are shared between pipelines; they are immutable.
func DefaultPipeline(c *Components, opts ...Option) *Pipeline {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)

	extractStep := NewExtractStep(c.Normalizer)
	evaluateStep := NewEvaluateStep(c.Evaluator, c.Index, c.Normalizer)

	p.AddSteps(
		NewReadStep(WithMaxFileSize(c.MaxFileSize), WithReadLogger(logger)),
		extractStep,
		evaluateStep,
		NewFixStep(c.Fixer, extractStep, evaluateStep,
			WithWrite(c.WriteFixes),
			WithFixLogger(logger),
		),
	)
	return p
}
