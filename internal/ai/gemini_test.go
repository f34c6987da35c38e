package ai

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	resp       *genai.GenerateContentResponse
	err        error
	lastModel  string
	lastConfig *genai.GenerateContentConfig
	lastPrompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	f.lastConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error when api key missing")
	}
}

func TestGeminiGenerateJSON(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"ok":true}`)}
	c := NewGeminiWithModels(models)
	text, usage, err := c.GenerateJSON(context.Background(), "gemini-2.5-flash", "system", "prompt")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text: %q", text)
	}
	if usage.TotalTokens != 15 {
		t.Fatalf("usage not mapped: %+v", usage)
	}
	if models.lastConfig == nil || models.lastConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response mode")
	}
	if models.lastConfig.SystemInstruction == nil || models.lastConfig.SystemInstruction.Parts[0].Text != "system" {
		t.Fatalf("expected system instruction to be set")
	}
	if models.lastPrompt != "prompt" {
		t.Fatalf("prompt not forwarded: %q", models.lastPrompt)
	}
}

func TestGeminiGenerateJSONEmpty(t *testing.T) {
	c := NewGeminiWithModels(&fakeModels{resp: textResponse("  ")})
	if _, _, err := c.GenerateJSON(context.Background(), "m", "", "p"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiGenerateImageFindsInlinePart(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "here you go"}}}},
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "caption"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
			}}},
		},
	}
	c := NewGeminiWithModels(&fakeModels{resp: resp})
	img, err := c.GenerateImage(context.Background(), "gemini-2.5-flash-image", "squat")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.MIMEType != "image/png" || len(img.Data) != 4 {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestGeminiGenerateImageNoInlinePart(t *testing.T) {
	c := NewGeminiWithModels(&fakeModels{resp: textResponse("no picture")})
	if _, err := c.GenerateImage(context.Background(), "m", "p"); !errors.Is(err, ErrNoInlineImage) {
		t.Fatalf("expected ErrNoInlineImage, got %v", err)
	}
}

func TestGeminiGenerateImageProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	c := NewGeminiWithModels(&fakeModels{err: boom})
	if _, err := c.GenerateImage(context.Background(), "m", "p"); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
