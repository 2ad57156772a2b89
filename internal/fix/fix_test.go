package fix

import (
	"strings"
	"testing"

	"github.com/nao1215/sitelint/internal/canonical"
	"github.com/nao1215/sitelint/internal/extract"
	"github.com/nao1215/sitelint/internal/model"
	"github.com/nao1215/sitelint/internal/rules"
)

var normalizer = canonical.NewNormalizer("https://www.example.com")

// fixOnce extracts, evaluates and fixes content the way the scan pipeline does.
func fixOnce(t *testing.T, path, content string) Result {
	t.Helper()
	doc := extract.Document(path, content)
	violations := rules.NewEvaluator(normalizer).Evaluate(doc, nil)
	return NewFixer(normalizer).Apply(doc, violations)
}

func TestApplyCanonical(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		path    string
		content string
		want    string
		status  model.CanonicalStatus
	}{
		{
			name:    "html extension",
			path:    "blog/post.html",
			content: `<head><link rel="canonical" href="https://www.example.com/blog/post.html"></head>`,
			want:    `<head><link rel="canonical" href="https://www.example.com/blog/post"></head>`,
			status:  model.CanonicalFixed,
		},
		{
			name:    "single quotes and extra attributes kept",
			path:    "about.html",
			content: `<link data-x='1' rel='canonical' href='http://example.com/about' />`,
			want:    `<link data-x='1' rel='canonical' href='https://www.example.com/about' />`,
			status:  model.CanonicalFixed,
		},
		{
			name:    "unquoted",
			path:    "index.html",
			content: `<link rel=canonical href=https://www.example.com/index.html>`,
			want:    `<link rel=canonical href=https://www.example.com/>`,
			status:  model.CanonicalFixed,
		},
		{
			name:    "amp variant",
			path:    "amp/en/blog/post.amp.html",
			content: `<link rel="canonical" href="https://www.example.com/amp/en/blog/post">`,
			want:    `<link rel="canonical" href="https://www.example.com/blog/post">`,
			status:  model.CanonicalFixed,
		},
		{
			name:    "already correct",
			path:    "docs/index.html",
			content: `<link rel="canonical" href="https://www.example.com/docs/">`,
			want:    `<link rel="canonical" href="https://www.example.com/docs/">`,
			status:  model.CanonicalAlreadyCorrect,
		},
		{
			name:    "well formed but different page",
			path:    "a.html",
			content: `<link rel="canonical" href="https://www.example.com/b">`,
			want:    `<link rel="canonical" href="https://www.example.com/b">`,
			status:  model.CanonicalMismatch,
		},
		{
			name:    "missing is never invented",
			path:    "a.html",
			content: `<head><title>a</title></head>`,
			want:    `<head><title>a</title></head>`,
			status:  model.CanonicalMissing,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := fixOnce(t, tc.path, tc.content)
			if res.NewContent != tc.want {
				t.Errorf("content:\n got %s\nwant %s", res.NewContent, tc.want)
			}
			if res.Changed != (tc.want != tc.content) {
				t.Errorf("Changed = %v", res.Changed)
			}
			if res.CanonicalStatus != tc.status {
				t.Errorf("status = %s, want %s", res.CanonicalStatus, tc.status)
			}
		})
	}
}

func TestApplyDuplicateH1(t *testing.T) {
	t.Parallel()

	content := `<body><h1 id="a">First</h1><p>x</p><H1 class="big" data-n="2">Second <em>one</em></H1><h1>Third</h1></body>`
	want := `<body><h1 id="a">First</h1><p>x</p><H2 class="big" data-n="2">Second <em>one</em></H2><h2>Third</h2></body>`

	res := fixOnce(t, "page.html", content)
	if res.NewContent != want {
		t.Errorf("content:\n got %s\nwant %s", res.NewContent, want)
	}
	if !res.Changed {
		t.Error("expected Changed")
	}
	if len(res.Applied) != 1 || res.Applied[0] != model.CategoryDuplicateH1 {
		t.Errorf("unexpected applied %v", res.Applied)
	}
}

func TestApplyOnlyNamedViolations(t *testing.T) {
	t.Parallel()

	content := `<link rel="canonical" href="https://www.example.com/a.html"><h1>a</h1><h1>b</h1>`
	doc := extract.Document("a.html", content)

	res := NewFixer(normalizer).Apply(doc, nil)
	if res.Changed {
		t.Error("nothing should change without violations")
	}
	if res.CanonicalStatus != model.CanonicalMismatch {
		t.Errorf("unexpected status %s", res.CanonicalStatus)
	}
}

// TestApplyIdempotent verifies that fixing the output of a fix changes nothing.
func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	documents := map[string]string{
		"blog/post.html":            `<link rel="canonical" href="http://example.com/blog/post.html"><h1>A</h1><h1>B</h1>`,
		"amp/en/blog/post.amp.html": `<link href='/amp/en/blog/post.amp.html' rel='canonical'><h1>A</h1>`,
		"index.html":                `<link rel="canonical" href="https://www.example.com/"><h1>Home</h1>`,
		"docs/index.html":           `<LINK REL="canonical" HREF="https://www.example.com/docs/index.html"><H1>Docs</H1><H1>More</H1><h2>x</h2>`,
		"my page.html":              `<link rel="canonical" href="https://www.example.com/my page.html">`,
		"nocanon.html":              `<h1>a</h1><h2>b</h2><h1>c`,
		"q.html":                    `<link rel="canonical" href="https://other.org/q?a=1&amp;b=2">`,
	}

	for path, content := range documents {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			first := fixOnce(t, path, content)
			second := fixOnce(t, path, first.NewContent)
			if second.Changed {
				t.Errorf("second pass changed content:\n first %s\nsecond %s", first.NewContent, second.NewContent)
			}
			if second.NewContent != first.NewContent {
				t.Error("second pass should return its input")
			}
			if first.CanonicalStatus == model.CanonicalFixed && second.CanonicalStatus != model.CanonicalAlreadyCorrect {
				t.Errorf("fixed canonical should be already correct afterwards, got %s", second.CanonicalStatus)
			}
		})
	}
}

func TestApplyPreservesEverythingElse(t *testing.T) {
	t.Parallel()

	content := "<!DOCTYPE html>\n<html>\n<head>\n  <link rel=\"canonical\" href=\"https://www.example.com/x.html\">\n</head>\n<body>\n<h1>x</h1>\n</body>\n</html>\n"
	res := fixOnce(t, "x.html", content)

	if strings.Replace(content, "/x.html", "/x", 1) != res.NewContent {
		t.Errorf("unexpected content %q", res.NewContent)
	}
	if len(res.Applied) != 1 || res.Applied[0] != model.CategoryHTMLExtensionInCanonical {
		t.Errorf("unexpected applied %v", res.Applied)
	}
}

func TestApplyNil(t *testing.T) {
	t.Parallel()

	if res := NewFixer(nil).Apply(nil, nil); res.Changed {
		t.Error("nil document should not change")
	}
}
