package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// Client wraps the official OpenAI SDK client and exposes minimal helpers used by the app.
type Client struct {
	sdk openai.Client
}

// New constructs a new OpenAI client. The apiKey is required.
// baseURL is optional (empty string uses the default API endpoint).
func New(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	sdk := openai.NewClient(opts...)
	return &Client{sdk: sdk}, nil
}

// GenerateJSON calls the Responses API in JSON mode and returns the output text.
// The system prompt is supplied via the "instructions" field.
func (c *Client) GenerateJSON(ctx context.Context, model, system, prompt string) (string, TokenUsage, error) {
	req := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{OfString: param.NewOpt(prompt)},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		},
	}
	if system != "" {
		req.Instructions = param.NewOpt(system)
	}
	res, err := c.sdk.Responses.New(ctx, req)
	if err != nil {
		return "", TokenUsage{}, err
	}
	text := strings.TrimSpace(res.OutputText())
	if text == "" {
		return "", usageFromResponse(res.Usage), ErrEmptyResponse
	}
	return text, usageFromResponse(res.Usage), nil
}

// TTS writes MP3 audio to the provided writer using the Audio Speech API.
// model should be a TTS-capable model (e.g., gpt-4o-mini-tts) and voice is a supported voice name.
func (c *Client) TTS(ctx context.Context, model, voice, text string, w io.Writer) error {
	req := openai.AudioSpeechNewParams{
		Model:          model,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}
	resp, err := c.sdk.Audio.Speech.New(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}
