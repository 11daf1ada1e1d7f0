// Package artifact turns model output into a standalone HTML page and saves
// it where a browser can open it.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Source records where the page came from in the model output.
type Source string

const (
	SourceDocument Source = "document"
	SourceFenced   Source = "fenced"
	SourceMarkdown Source = "markdown"
)

// ErrEmpty is returned by Extract for blank output.
var ErrEmpty = errors.New("model output is empty")

// Page is an HTML document ready to be written to disk.
type Page struct {
	HTML   string
	Source Source
}

var (
	htmlStart = regexp.MustCompile(`(?is)^\s*(<!doctype html|<html)`)
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
)

const markdownShell = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>napkin</title>
</head>
<body>
%s</body>
</html>
`

// Extract finds the HTML page in output. A bare HTML document is used as is,
// otherwise the first html fenced code block wins, and anything else is
// rendered as markdown inside a minimal page.
func Extract(output string) (Page, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return Page{}, ErrEmpty
	}
	if htmlStart.MatchString(trimmed) {
		return Page{HTML: trimmed + "\n", Source: SourceDocument}, nil
	}

	md := goldmark.New()
	src := []byte(trimmed)
	if fenced, ok := firstHTMLBlock(md, src); ok {
		return Page{HTML: fenced, Source: SourceFenced}, nil
	}

	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return Page{}, fmt.Errorf("render markdown: %w", err)
	}
	return Page{HTML: fmt.Sprintf(markdownShell, buf.String()), Source: SourceMarkdown}, nil
}

func firstHTMLBlock(md goldmark.Markdown, src []byte) (string, bool) {
	doc := md.Parser().Parse(text.NewReader(src))
	var found string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var body bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			segment := lines.At(i)
			body.Write(segment.Value(src))
		}
		lang := strings.ToLower(string(block.Language(src)))
		if lang == "html" || (lang == "" && htmlStart.Match(body.Bytes())) {
			found = body.String()
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found, found != ""
}

// Save writes page into dir as <timestamp>-<slug>.html and returns the
// absolute path.
func Save(dir string, at time.Time, title string, page Page) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := at.UTC().Format("20060102-150405")
	if slug := slugify(title); slug != "" {
		name += "-" + slug
	}
	path, err := filepath.Abs(filepath.Join(dir, name+".html"))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(page.HTML), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func slugify(title string) string {
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	return slug
}
