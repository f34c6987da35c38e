package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// ElevenLabsDefaultVoiceID is the narrator voice used when none is configured.
	ElevenLabsDefaultVoiceID = "JBFqnCBsd6RMkjVDRZzb"
	// ElevenLabsDefaultModelID is the multilingual speech model.
	ElevenLabsDefaultModelID = "eleven_multilingual_v2"

	elevenLabsBaseURL = "https://api.elevenlabs.io"
	elevenLabsFormat  = "mp3_44100_128"
	elevenLabsChunk   = 32 * 1024
)

// ElevenLabsOption configures the ElevenLabs client.
type ElevenLabsOption func(*ElevenLabsClient)

func WithElevenLabsBaseURL(baseURL string) ElevenLabsOption {
	return func(c *ElevenLabsClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithElevenLabsHTTPClient(client *http.Client) ElevenLabsOption {
	return func(c *ElevenLabsClient) {
		if client != nil {
			c.http = client
		}
	}
}

// ElevenLabsClient streams MP3 speech from the ElevenLabs streaming endpoint.
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, errors.New("ELEVENLABS_API_KEY is required")
	}
	c := &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: elevenLabsBaseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ElevenLabsError is a non-2xx answer from the API. Detail is the
// provider's "detail" message when the body carries one.
type ElevenLabsError struct {
	StatusCode int
	Detail     string
}

func (e *ElevenLabsError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("elevenlabs: status %d", e.StatusCode)
	}
	return fmt.Sprintf("elevenlabs: status %d: %s", e.StatusCode, e.Detail)
}

// TTS streams speech for text and writes every audio chunk to w in arrival
// order. Empty model and voice fall back to the package defaults.
func (c *ElevenLabsClient) TTS(ctx context.Context, model, voice, text string, w io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("elevenlabs: text is required")
	}
	if strings.TrimSpace(voice) == "" {
		voice = ElevenLabsDefaultVoiceID
	}
	if strings.TrimSpace(model) == "" {
		model = ElevenLabsDefaultModelID
	}
	body, err := c.openStream(ctx, model, voice, text)
	if err != nil {
		return err
	}
	defer body.Close()
	if _, err := io.CopyBuffer(w, body, make([]byte, elevenLabsChunk)); err != nil {
		return fmt.Errorf("elevenlabs: read audio stream: %w", err)
	}
	return nil
}

func (c *ElevenLabsClient) openStream(ctx context.Context, model, voice, text string) (io.ReadCloser, error) {
	payload, err := json.Marshal(struct {
		Text    string `json:"text"`
		ModelID string `json:"model_id"`
	}{Text: text, ModelID: model})
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voice) + "/stream?" +
		url.Values{"output_format": {elevenLabsFormat}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, elevenLabsError(resp)
	}
	return resp.Body, nil
}

func elevenLabsError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	e := &ElevenLabsError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &env) != nil || len(env.Detail) == 0 {
		return e
	}
	var msg string
	if json.Unmarshal(env.Detail, &msg) == nil {
		e.Detail = msg
		return e
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(env.Detail, &obj) == nil && obj.Message != "" {
		e.Detail = obj.Message
	}
	return e
}
