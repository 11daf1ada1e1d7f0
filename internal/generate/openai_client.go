package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type openAIClient struct {
	model  string
	client *openai.Client
}

func newOpenAIClient(apiKey, model, baseURL string, httpClient *http.Client) *openAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &openAIClient{model: model, client: openai.NewClientWithConfig(cfg)}
}

func (c *openAIClient) Name() string {
	return fmt.Sprintf("OpenAI (%s)", c.model)
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (string, error) {
	att, err := prepareAttachment(req.Attachment)
	if err != nil {
		return "", err
	}
	prompt := buildPrompt(req.Prompt, att)

	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if att.isImage() {
		message.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    att.dataURL(),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		message.Content = prompt
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessage{message},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai returned an empty response")
	}
	return content, nil
}
