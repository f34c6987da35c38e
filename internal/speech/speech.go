package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"fitcoach/internal/ai"
)

// ErrGenerate is the only error text callers ever see from Synthesize.
const ErrGenerate = "Failed to generate speech"

// ErrMissingCredential is logged when no speech client could be built.
var ErrMissingCredential = errors.New("speech provider credential is not configured")

var errEmptyAudio = errors.New("speech provider returned no audio")

// Result carries an MP3 data URI on success.
type Result struct {
	Success bool   `json:"success"`
	Audio   string `json:"audio,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Synthesizer turns text into a single buffered MP3 clip.
type Synthesizer struct {
	client ai.TTSClient
	model  string
	voice  string
}

// NewSynthesizer accepts a nil client; Synthesize then fails with ErrGenerate.
func NewSynthesizer(client ai.TTSClient, model, voice string) *Synthesizer {
	return &Synthesizer{client: client, model: model, voice: voice}
}

// chunkCounter records how many writes the provider made while streaming.
type chunkCounter struct {
	buf    bytes.Buffer
	chunks int
}

func (c *chunkCounter) Write(p []byte) (int, error) {
	c.chunks++
	return c.buf.Write(p)
}

// Synthesize streams audio from the provider, concatenates the chunks in arrival order
// and returns them as one base64 data URI.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) Result {
	if s == nil || s.client == nil {
		slog.Error("speech generation failed", "err", ErrMissingCredential)
		return Result{Error: ErrGenerate}
	}
	if strings.TrimSpace(text) == "" {
		slog.Error("speech generation failed", "err", "empty text")
		return Result{Error: ErrGenerate}
	}
	var out chunkCounter
	if err := s.client.TTS(ctx, s.model, s.voice, text, &out); err != nil {
		slog.Error("speech generation failed", "model", s.model, "voice", s.voice, "err", err)
		return Result{Error: ErrGenerate}
	}
	if out.buf.Len() == 0 {
		slog.Error("speech generation failed", "model", s.model, "err", errEmptyAudio)
		return Result{Error: ErrGenerate}
	}
	slog.Debug("speech generated", "bytes", out.buf.Len(), "chunks", out.chunks)
	return Result{Success: true, Audio: DataURI(out.buf.Bytes())}
}

// DataURI encodes MP3 bytes as a data URI.
func DataURI(audio []byte) string {
	return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio)
}

// DecodeDataURI reverses DataURI.
func DecodeDataURI(uri string) ([]byte, error) {
	const prefix = "data:audio/mp3;base64,"
	if !strings.HasPrefix(uri, prefix) {
		return nil, errors.New("not an mp3 data uri")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
}
