package generate

import (
	"context"
	"fmt"
	"strings"
)

// dryClient answers locally with a description of what would be sent.
type dryClient struct{}

func (dryClient) Name() string { return "dry run" }

func (dryClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	att, err := prepareAttachment(req.Attachment)
	if err != nil {
		return "", err
	}
	lines := []string{"Dry run: no model was called."}
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		lines = append(lines, fmt.Sprintf("Prompt: %s", prompt))
	}
	switch {
	case att.isImage():
		lines = append(lines, fmt.Sprintf("Image: %s (%s, %d bytes)", att.name, att.mediaType, len(att.image)))
	case att != nil:
		lines = append(lines, fmt.Sprintf("Document: %s (%d page(s), %d chars of text, %d passages left out)", att.name, att.pages, len(att.document), att.omitted))
	}
	lines = append(lines, fmt.Sprintf("Prompt size: %d chars", len(buildPrompt(req.Prompt, att))))
	return strings.Join(lines, "\n"), nil
}
