// Package analysis sends the consolidated deck content to the model and
// returns its investment analysis. This is the single external API call
// of the pipeline; the bundle arrives here already normalized and
// truncated to budget.
package analysis

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"decklens/deck"
	"decklens/research"
)

const maxResponseTokens = 4000

// Result is the model's free-form structured analysis. The report stage
// owns schema concerns; nothing here validates section layout.
type Result struct {
	Content string
	Model   string
}

type Client struct {
	llm    llms.Model
	model  string
	logger *zap.Logger
}

// NewClient builds an OpenRouter-backed client. OpenRouter speaks the
// OpenAI chat completions dialect, so the openai adapter with a custom
// base URL covers it.
func NewClient(apiKey, baseURL, model string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis client: %w", err)
	}
	return &Client{llm: llm, model: model, logger: logger}, nil
}

// Analyze serializes the bundle into one request: prompt text first, then
// the informative images in page order.
func (c *Client) Analyze(ctx context.Context, b *deck.ContentBundle, companyName string, findings []research.Finding) (*Result, error) {
	parts := []llms.ContentPart{
		llms.TextPart(BuildPrompt(b, companyName, findings)),
	}
	for _, img := range b.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
		parts = append(parts, llms.ImageURLPart(dataURL))
	}

	c.logger.Info("sending analysis request",
		zap.String("model", c.model),
		zap.Int("text_len", len(b.FullText())),
		zap.Int("images", len(b.Images)),
		zap.Int("urls", len(b.URLs)))

	completion, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}, llms.WithMaxTokens(maxResponseTokens), llms.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Content == "" {
		return nil, fmt.Errorf("analysis request: empty completion")
	}
	return &Result{Content: completion.Choices[0].Content, Model: c.model}, nil
}
