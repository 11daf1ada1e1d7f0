package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name   string
		output string
		source Source
		want   string
	}{
		{
			name:   "bare document",
			output: "\n<!DOCTYPE html><html><body>dark</body></html>\n",
			source: SourceDocument,
			want:   "<!DOCTYPE html><html><body>dark</body></html>\n",
		},
		{
			name:   "fenced html",
			output: "Here is your page:\n\n```html\n<html><body>hi</body></html>\n```\n\nEnjoy!",
			source: SourceFenced,
			want:   "<html><body>hi</body></html>\n",
		},
		{
			name:   "unlabelled fence",
			output: "```\n<!doctype html>\n<p>x</p>\n```",
			source: SourceFenced,
			want:   "<!doctype html>\n<p>x</p>\n",
		},
		{
			name:   "markdown",
			output: "# Pricing\n\nThree tiers.",
			source: SourceMarkdown,
			want:   "<h1>Pricing</h1>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Extract(tc.output)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if page.Source != tc.source {
				t.Fatalf("source = %s, want %s", page.Source, tc.source)
			}
			if tc.source == SourceMarkdown {
				if !strings.Contains(page.HTML, tc.want) || !strings.HasPrefix(page.HTML, "<!doctype html>") {
					t.Fatalf("markdown page malformed:\n%s", page.HTML)
				}
				return
			}
			if page.HTML != tc.want {
				t.Fatalf("HTML = %q, want %q", page.HTML, tc.want)
			}
		})
	}
}

func TestExtractSkipsOtherFences(t *testing.T) {
	output := "```css\nbody { color: red; }\n```\n\n```html\n<main></main>\n```"
	page, err := Extract(output)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if page.Source != SourceFenced || page.HTML != "<main></main>\n" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestExtractEmpty(t *testing.T) {
	if _, err := Extract("  \n"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2026, 10, 19, 9, 30, 5, 0, time.UTC)
	path, err := Save(dir, at, "Make it DARK mode!", Page{HTML: "<html></html>\n"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "20261019-093005-make-it-dark-mode.html" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<html></html>\n" {
		t.Fatalf("unexpected contents %q, %v", data, err)
	}

	path, err = Save(dir, at, "", Page{HTML: "x"})
	if err != nil || filepath.Base(path) != "20261019-093005.html" {
		t.Fatalf("untitled save: %s, %v", path, err)
	}
}
