// Package document trims extracted document text to what fits in a model
// prompt, keeping the passages that describe a product.
package document

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Chunk is one deduplicated paragraph of the source document.
type Chunk struct {
	ID    string
	Text  string
	Start int
	End   int
}

// Condensed is the result of fitting a document into a budget.
type Condensed struct {
	Text    string
	Chunks  []Chunk
	Dropped int
}

// Condenser splits text into paragraphs, removes repeats and boilerplate, and
// keeps as many paragraphs as fit in its rune budget.
type Condenser struct {
	budget int
}

var (
	paragraphSplit   = regexp.MustCompile(`\n{2,}`)
	whitespaceSanity = regexp.MustCompile(`\s+`)
	pageNumber       = regexp.MustCompile(`^(page )?\d+( of \d+)?$`)
)

var designKeywords = []string{
	"screen",
	"page",
	"button",
	"form",
	"layout",
	"navigation",
	"dashboard",
	"user",
	"flow",
	"feature",
	"color",
	"brand",
	"must",
	"should",
	"requirement",
}

// NewCondenser returns a Condenser with the given rune budget. A budget of
// zero or less keeps everything.
func NewCondenser(budget int) *Condenser {
	return &Condenser{budget: budget}
}

// Condense keeps the whole document when it fits. Otherwise paragraphs are
// chosen by how much product language they contain and emitted in their
// original order.
func (c *Condenser) Condense(content string) Condensed {
	chunks := split(content)
	if c.budget <= 0 || joinedLen(chunks) <= c.budget {
		return Condensed{Text: join(chunks), Chunks: chunks}
	}

	selected := selectChunks(rankChunks(chunks), c.budget)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Start < selected[j].Start
	})
	return Condensed{
		Text:    join(selected),
		Chunks:  chunks,
		Dropped: len(chunks) - len(selected),
	}
}

func split(content string) []Chunk {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	seen := map[string]bool{}
	var chunks []Chunk
	cursor := 0
	for _, paragraph := range paragraphSplit.Split(content, -1) {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" || isBoilerplate(trimmed) {
			continue
		}
		hash := hashChunk(canonicalParagraph(trimmed))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		length := runeLen(trimmed)
		chunks = append(chunks, Chunk{ID: hash, Text: trimmed, Start: cursor, End: cursor + length})
		cursor += length
	}
	return chunks
}

func canonicalParagraph(text string) string {
	return strings.ToLower(whitespaceSanity.ReplaceAllString(strings.TrimSpace(text), " "))
}

func isBoilerplate(paragraph string) bool {
	lower := strings.ToLower(strings.TrimSpace(paragraph))
	switch {
	case lower == "":
		return true
	case lower == "contents", lower == "table of contents":
		return true
	case strings.HasPrefix(lower, "copyright"), strings.HasPrefix(lower, "©"):
		return true
	case strings.Contains(lower, "all rights reserved"):
		return true
	case pageNumber.MatchString(lower):
		return true
	}
	if len(lower) <= 12 && !strings.Contains(lower, " ") {
		return true
	}
	alpha := 0
	for _, r := range lower {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	return alpha*5 < runeLen(lower)
}

func hashChunk(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func rankChunks(chunks []Chunk) []Chunk {
	type scoredChunk struct {
		chunk Chunk
		score int
	}
	scored := make([]scoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, scoredChunk{chunk: chunk, score: scoreChunk(chunk.Text)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	ranked := make([]Chunk, 0, len(scored))
	for _, entry := range scored {
		ranked = append(ranked, entry.chunk)
	}
	return ranked
}

func scoreChunk(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, keyword := range designKeywords {
		if strings.Contains(lower, keyword) {
			score++
		}
	}
	return score
}

// selectChunks takes chunks in order while they fit. The first chunk is
// clipped rather than dropped so the result is never empty.
func selectChunks(ranked []Chunk, budget int) []Chunk {
	var selected []Chunk
	remaining := budget
	for _, chunk := range ranked {
		cost := runeLen(chunk.Text)
		if len(selected) > 0 {
			cost += len(separator)
		}
		if cost <= remaining {
			selected = append(selected, chunk)
			remaining -= cost
			continue
		}
		if len(selected) == 0 {
			clipped := chunk
			clipped.Text = string([]rune(chunk.Text)[:budget])
			clipped.End = clipped.Start + budget
			return []Chunk{clipped}
		}
	}
	return selected
}

const separator = "\n\n"

func join(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Text)
	}
	return strings.Join(parts, separator)
}

func joinedLen(chunks []Chunk) int {
	return runeLen(join(chunks))
}

func runeLen(text string) int {
	return len([]rune(text))
}
