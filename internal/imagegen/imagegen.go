package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"fitcoach/internal/ai"
)

const (
	DefaultModel       = "gemini-2.5-flash-image"
	DefaultFallbackURL = "https://image.pollinations.ai/prompt/"

	// ErrGenerate is the only error text callers ever see from Generate.
	ErrGenerate = "Failed to generate image"
)

// Kind selects the prompt prefix.
type Kind string

const (
	KindWorkout Kind = "workout"
	KindFood    Kind = "food"
)

var prefixes = map[Kind]string{
	KindWorkout: "gym workout, fitness, high quality, 4k, athletic person doing",
	KindFood:    "gourmet food, delicious, michelin star, 8k, professional photography of",
}

// ParseKind accepts "workout" or "food" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := prefixes[k]; !ok {
		return "", fmt.Errorf("unknown image type %q", s)
	}
	return k, nil
}

// BuildPrompt prepends the kind's prefix to the description.
func BuildPrompt(description string, kind Kind) (string, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown image type %q", kind)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return "", errors.New("description is required")
	}
	return prefix + " " + description, nil
}

// Result carries either a data URI (primary) or a remote URL (Degraded).
type Result struct {
	Success  bool   `json:"success"`
	Degraded bool   `json:"degraded,omitempty"`
	Image    string `json:"image,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Generator struct {
	client      ai.ImageClient
	model       string
	fallbackURL string
}

func NewGenerator(client ai.ImageClient, model, fallbackURL string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	if fallbackURL == "" {
		fallbackURL = DefaultFallbackURL
	}
	return &Generator{client: client, model: model, fallbackURL: fallbackURL}
}

// Generate tries the image model first and falls back to a prompt-derived URL.
func (g *Generator) Generate(ctx context.Context, description string, kind Kind) Result {
	prompt, err := BuildPrompt(description, kind)
	if err != nil {
		slog.Error("image generation failed", "err", err)
		return Result{Error: ErrGenerate}
	}
	if g.client != nil {
		img, err := g.client.GenerateImage(ctx, g.model, prompt)
		if err == nil && len(img.Data) > 0 {
			return Result{Success: true, Image: DataURI(img.MIMEType, img.Data)}
		}
		if err == nil {
			err = ai.ErrNoInlineImage
		}
		slog.Warn("image model failed, using fallback", "model", g.model, "kind", kind, "err", err)
	}
	u, err := FallbackURL(g.fallbackURL, prompt)
	if err != nil {
		slog.Error("image fallback failed", "err", err)
		return Result{Error: ErrGenerate}
	}
	return Result{Success: true, Degraded: true, Image: u}
}

// DataURI encodes raw bytes as a data URI labelled with mimeType.
// Anything that is not an image/* type is labelled image/png.
func DataURI(mimeType string, data []byte) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI returns the bytes of an image data URI built by DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	head, payload, ok := strings.Cut(uri, ";base64,")
	if !ok || !strings.HasPrefix(head, "data:image/") {
		return nil, errors.New("not an image data uri")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// FallbackURL builds the no-auth image URL for a prompt. The URL is not fetched.
func FallbackURL(base, prompt string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse fallback url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("fallback url %q must be absolute", base)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + encodeComponent(prompt) + "?nologo=true", nil
}

var componentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes a string the way browsers encode a URI component.
func encodeComponent(s string) string {
	return componentUnescapes.Replace(url.QueryEscape(s))
}
