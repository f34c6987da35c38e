package ai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient talks to the Gemini API for JSON text and inline image generation.
type GeminiClient struct {
	models geminiModels
}

// NewGemini constructs a Gemini client. The apiKey is required.
// baseURL is optional (empty string uses the default API endpoint).
func NewGemini(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{models: client.Models}, nil
}

// NewGeminiWithModels builds a client around an existing models service.
func NewGeminiWithModels(models geminiModels) *GeminiClient {
	return &GeminiClient{models: models}
}

// GenerateJSON requests application/json output and returns the concatenated text parts.
func (c *GeminiClient) GenerateJSON(ctx context.Context, model, system, prompt string) (string, TokenUsage, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", TokenUsage{}, err
	}
	if resp == nil {
		return "", TokenUsage{}, ErrEmptyResponse
	}
	usage := usageFromGemini(resp.UsageMetadata)
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", usage, ErrEmptyResponse
	}
	return text, usage, nil
}

// GenerateImage returns the first inline image found across the response candidates.
func (c *GeminiClient) GenerateImage(ctx context.Context, model, prompt string) (Image, error) {
	resp, err := c.models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return Image{}, err
	}
	if img, ok := firstInlineImage(resp); ok {
		return img, nil
	}
	return Image{}, ErrNoInlineImage
}

func firstInlineImage(resp *genai.GenerateContentResponse) (Image, bool) {
	if resp == nil {
		return Image{}, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, true
		}
	}
	return Image{}, false
}
