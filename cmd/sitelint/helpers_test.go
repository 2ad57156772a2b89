package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const faqPage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>FAQ</title>
<link rel="canonical" href="https://www.example.com/faq">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"FAQPage"}</script>
</head>
<body><h1>FAQ</h1><h2>Shipping</h2></body>
</html>`

// fixablePage has the required schema but a malformed canonical link and
// a second H1, both of which --fix repairs.
const fixablePage = `<!DOCTYPE html>
<html lang="en">
<head>
<link rel="canonical" href="http://example.com/faq.html">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"FAQPage"}</script>
</head>
<body><h1>One</h1><h1>Two</h1></body>
</html>`

// noCanonicalPage is valid except for the missing canonical link.
const noCanonicalPage = `<!DOCTYPE html>
<html lang="en">
<head><title>About</title></head>
<body><h1>About</h1></body>
</html>`

const pageConfigJSON = `{
  "faq": {"type": "FAQPage", "requiredSchemas": ["FAQPage"]},
  "contact": {"type": "WebPage"}
}`

// writeSite writes files under a new temporary site directory together
// with a page config next to it. It returns the site directory and the
// page config path.
func writeSite(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	base := t.TempDir()
	site := filepath.Join(base, "public")
	for rel, content := range files {
		path := filepath.Join(site, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(site, 0o750); err != nil {
		t.Fatal(err)
	}

	pageConfig := filepath.Join(base, "page-config.json")
	if err := os.WriteFile(pageConfig, []byte(pageConfigJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	return site, pageConfig
}

// executeCmd runs the root command with args and returns stdout, stderr
// and the command error.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
