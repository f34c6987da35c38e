package plan

import (
	"context"
	"log/slog"

	"fitcoach/internal/ai"
	"fitcoach/internal/profile"
)

// DefaultModel is the text model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrGenerate is the only error text callers ever see from Generate.
const ErrGenerate = "Failed to generate plan"

// Result is the envelope returned to callers.
type Result struct {
	Success bool         `json:"success"`
	Data    *FitnessPlan `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// Generator turns a validated profile into a FitnessPlan with one model call.
type Generator struct {
	client ai.TextClient
	model  string
}

func NewGenerator(client ai.TextClient, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

func (g *Generator) Model() string { return g.model }

// Generate never returns a partial plan. Any failure is logged and collapsed into ErrGenerate.
func (g *Generator) Generate(ctx context.Context, p profile.UserProfile) Result {
	if g == nil || g.client == nil {
		slog.Error("plan generation failed", "err", "no text client configured")
		return Result{Error: ErrGenerate}
	}
	prompt, err := BuildUserPrompt(p)
	if err != nil {
		slog.Error("plan prompt failed", "err", err)
		return Result{Error: ErrGenerate}
	}
	text, usage, err := g.client.GenerateJSON(ctx, g.model, SystemInstruction(), prompt)
	if err != nil {
		slog.Error("plan generation failed", "model", g.model, "err", err)
		return Result{Error: ErrGenerate}
	}
	fp, err := Parse(text)
	if err != nil {
		slog.Error("plan response rejected", "model", g.model, "err", err)
		return Result{Error: ErrGenerate}
	}
	slog.Info(
		"plan generated",
		"model", g.model,
		"days", len(fp.WorkoutPlan),
		"snacks", len(fp.DietPlan.Snacks),
		"inputTokens", usage.InputTokens,
		"outputTokens", usage.OutputTokens,
		"totalTokens", usage.TotalTokens,
	)
	return Result{Success: true, Data: &fp}
}
