// Package vision reads URLs out of deck images with a vision-capable
// model. Images are grouped per page so every extracted URL keeps its
// originating page ordinal.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"decklens/deck"
)

const urlPrompt = `Examine the images and extract any URLs, website addresses, social media handles, or email addresses visible in them.

Return ONLY a JSON list of strings in this exact format:
["url1", "url2"]

If nothing is found, return an empty list: []`

var responseURLPattern = regexp.MustCompile(`https?://[^\s<>"',\]]+`)

// Reader extracts URL text from images through a vision model.
type Reader struct {
	llm    llms.Model
	logger *zap.Logger
}

func NewReader(apiKey, baseURL, model string, logger *zap.Logger) (*Reader, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &Reader{llm: llm, logger: logger}, nil
}

// ReadURLs sends each page's images through the model and returns the raw
// URL strings keyed by page ordinal. Per-page failures are logged and
// skipped: a missed page never fails the run.
func (r *Reader) ReadURLs(ctx context.Context, images []deck.ImageAsset) map[int][]string {
	byPage := make(map[int][]deck.ImageAsset)
	for _, img := range images {
		byPage[img.PageOrdinal] = append(byPage[img.PageOrdinal], img)
	}
	ordinals := make([]int, 0, len(byPage))
	for ord := range byPage {
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)

	out := make(map[int][]string)
	for _, ord := range ordinals {
		urls, err := r.readPage(ctx, byPage[ord])
		if err != nil {
			r.logger.Warn("vision url extraction failed",
				zap.Int("page", ord),
				zap.Error(err))
			continue
		}
		if len(urls) > 0 {
			out[ord] = urls
		}
	}
	return out
}

func (r *Reader) readPage(ctx context.Context, images []deck.ImageAsset) ([]string, error) {
	parts := make([]llms.ContentPart, 0, len(images)+1)
	parts = append(parts, llms.TextPart(urlPrompt))
	for _, img := range images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
		parts = append(parts, llms.ImageURLPart(dataURL))
	}

	completion, err := r.llm.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: parts},
	}, llms.WithMaxTokens(1000), llms.WithTemperature(0.1))
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}
	return ParseURLList(completion.Choices[0].Content), nil
}

// ParseURLList parses the model's reply. The prompt asks for a JSON array;
// models wrap it in code fences or prose often enough that a regex sweep
// backs the parse up.
func ParseURLList(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var urls []string
	if err := json.Unmarshal([]byte(content), &urls); err == nil {
		out := urls[:0]
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
		return out
	}
	return responseURLPattern.FindAllString(content, -1)
}
