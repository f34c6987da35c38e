package ai

import (
	"context"
	"errors"
	"io"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrNoInlineImage is returned when an image response carries no inline image part.
var ErrNoInlineImage = errors.New("no inline image in response")

// TextClient generates JSON text from a system instruction and a user prompt.
type TextClient interface {
	GenerateJSON(ctx context.Context, model, system, prompt string) (string, TokenUsage, error)
}

// ImageClient generates a single inline image for a prompt.
type ImageClient interface {
	GenerateImage(ctx context.Context, model, prompt string) (Image, error)
}

// TTSClient synthesizes speech audio from text.
type TTSClient interface {
	TTS(ctx context.Context, model, voice, text string, w io.Writer) error
}

// Image is raw image bytes returned inline by a multimodal model.
type Image struct {
	MIMEType string
	Data     []byte
}
