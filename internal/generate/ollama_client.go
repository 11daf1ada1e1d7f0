package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

type ollamaClient struct {
	model  string
	client *ollama.Client
}

func newOllamaClient(host, model string, httpClient *http.Client) (*ollamaClient, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama host %q: %w", host, err)
	}
	return &ollamaClient{model: model, client: ollama.NewClient(u, httpClient)}, nil
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Generate(ctx context.Context, req Request) (string, error) {
	att, err := prepareAttachment(req.Attachment)
	if err != nil {
		return "", err
	}
	stream := false
	genReq := &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: buildPrompt(req.Prompt, att),
		Stream: &stream,
	}
	if att.isImage() {
		genReq.Images = []ollama.ImageData{att.image}
	}

	var text strings.Builder
	if err := c.client.Generate(ctx, genReq, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", errors.New("ollama returned an empty response")
	}
	return out, nil
}
