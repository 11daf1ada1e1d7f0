package media

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// PDFText extracts the plain text of the PDF at path and reports its page
// count. Pages are separated by a blank line, whitespace inside a page is
// collapsed, and pages without extractable text are skipped. Malformed documents that make the parser panic are reported as
// errors.
func PDFText(path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()
	file, reader, err := pdf.Open(path)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	pages = reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			// Image-only pages have no text layer.
			continue
		}
		if content = strings.TrimSpace(extraneousWhitespace.ReplaceAllString(content, " ")); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n"), pages, nil
}
