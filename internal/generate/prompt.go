package generate

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/csheth/napkin/internal/document"
	"github.com/csheth/napkin/internal/media"
)

// attachment is a media.File prepared for a backend: images as raw bytes,
// PDFs as condensed text.
type attachment struct {
	name      string
	mediaType string
	image     []byte
	document  string
	pages     int
	omitted   int
}

func (a *attachment) isImage() bool {
	return a != nil && len(a.image) > 0
}

func (a *attachment) dataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.mediaType, base64.StdEncoding.EncodeToString(a.image))
}

func prepareAttachment(file *media.File) (*attachment, error) {
	if file == nil {
		return nil, nil
	}
	if err := media.Check(*file); err != nil {
		return nil, err
	}
	att := &attachment{name: file.Name, mediaType: media.Normalize(file.MediaType)}
	if media.IsPDF(file.MediaType) {
		text, pages, err := media.PDFText(file.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file.Name, err)
		}
		condensed := document.NewCondenser(maxDocumentChars).Condense(text)
		att.document = condensed.Text
		att.omitted = condensed.Dropped
		att.pages = pages
		return att, nil
	}
	data, err := file.ReadAll(maxImageBytes)
	if err != nil {
		return nil, err
	}
	att.image = data
	return att, nil
}

func buildPrompt(userPrompt string, att *attachment) string {
	var b strings.Builder
	b.WriteString("You are a product designer and front-end engineer. ")
	b.WriteString("Turn the user's idea into a single self-contained HTML page with inline CSS and JavaScript.\n")
	b.WriteString("Reply with the HTML document only, no commentary.\n\n")

	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case att.isImage():
		b.WriteString("The attached image (" + att.name + ") is a sketch, wireframe, or screenshot of the interface to build. ")
		b.WriteString("Match its layout and content.\n\n")
	case att != nil:
		fmt.Fprintf(&b, "The user attached a document (%s, %d page(s)). Build the interface it describes.\n\n", att.name, att.pages)
		if att.omitted > 0 {
			fmt.Fprintf(&b, "Only the most relevant passages are included; %d were left out.\n", att.omitted)
		}
		b.WriteString("Document:\n")
		b.WriteString(att.document)
		b.WriteString("\n\n")
	}
	if userPrompt != "" {
		b.WriteString("Request: " + userPrompt + "\n")
	} else if att == nil {
		b.WriteString("Request: surprise me with a small, useful app.\n")
	} else {
		b.WriteString("Request: build what the attachment shows.\n")
	}
	return b.String()
}
