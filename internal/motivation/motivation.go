package motivation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fitcoach/internal/ai"
)

// TipCount is the number of tips every Motivation carries.
const TipCount = 3

// Motivation is a short quote plus exactly TipCount actionable tips.
type Motivation struct {
	Quote string   `json:"quote"`
	Tips  []string `json:"tips"`
}

// Result always carries Data. A failed call reports Success false with the
// fixed fallback in Data and Degraded set.
type Result struct {
	Success  bool       `json:"success"`
	Degraded bool       `json:"degraded,omitempty"`
	Data     Motivation `json:"data"`
}

// Fallback returns a fresh copy of the fixed motivation content.
func Fallback() Motivation {
	return Motivation{
		Quote: "Consistency is the key to everything.",
		Tips:  []string{"Drink water now", "Fix your posture", "Take a deep breath"},
	}
}

// Generator asks a text model for motivation and absorbs every failure.
type Generator struct {
	client ai.TextClient
	model  string
	now    func() time.Time
}

func NewGenerator(client ai.TextClient, model string) *Generator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Generator{client: client, model: model, now: time.Now}
}

// BuildPrompt embeds the timestamp so repeated calls are not served from a cache.
func BuildPrompt(name, goal string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: Time is %s.\n", at.UTC().Format(time.RFC3339))
	b.WriteString("Task: Generate a JSON object with two keys:\n")
	fmt.Fprintf(&b, "1. \"quote\": A creative, short, punchy motivational quote for %s. (Do not repeat generic quotes).\n", goal)
	fmt.Fprintf(&b, "2. \"tips\": An array of %d very specific, actionable habits for %s to do right now.\n", TipCount, name)
	b.WriteString("Make it sound like a tough but loving coach.")
	return b.String()
}

func (g *Generator) Generate(ctx context.Context, name, goal string) Result {
	if g == nil || g.client == nil {
		slog.Warn("motivation fallback", "err", "no text client configured")
		return fallbackResult()
	}
	prompt := BuildPrompt(name, goal, g.now())
	text, _, err := g.client.GenerateJSON(ctx, g.model, "", prompt)
	if err != nil {
		slog.Warn("motivation fallback", "model", g.model, "err", err)
		return fallbackResult()
	}
	m, err := Parse(text)
	if err != nil {
		slog.Warn("motivation fallback", "model", g.model, "err", err)
		return fallbackResult()
	}
	return Result{Success: true, Data: m}
}

func fallbackResult() Result {
	return Result{Success: false, Degraded: true, Data: Fallback()}
}

// Parse decodes and checks a model response.
func Parse(raw string) (Motivation, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Motivation{}, ai.ErrEmptyResponse
	}
	var m Motivation
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return Motivation{}, fmt.Errorf("decode motivation: %w", err)
	}
	m.Quote = strings.TrimSpace(m.Quote)
	if m.Quote == "" {
		return Motivation{}, errors.New("motivation quote is empty")
	}
	tips := make([]string, 0, len(m.Tips))
	for _, tip := range m.Tips {
		if tip = strings.TrimSpace(tip); tip != "" {
			tips = append(tips, tip)
		}
	}
	if len(tips) != TipCount {
		return Motivation{}, fmt.Errorf("expected %d tips, got %d", TipCount, len(tips))
	}
	m.Tips = tips
	return m, nil
}
