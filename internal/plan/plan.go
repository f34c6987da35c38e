package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FitnessPlan is the structured output of the plan generator.
type FitnessPlan struct {
	WorkoutPlan []WorkoutDay `json:"workoutPlan"`
	DietPlan    DietPlan     `json:"dietPlan"`
}

// WorkoutDay is one training day.
type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

// Exercise is a single prescribed movement. Reps may be a range such as "10-12".
type Exercise struct {
	Name  string `json:"name"`
	Sets  int    `json:"sets"`
	Reps  string `json:"reps"`
	Rest  string `json:"rest"`
	Notes string `json:"notes,omitempty"`
}

// DietPlan holds the three main meals and any snacks.
type DietPlan struct {
	Breakfast Meal   `json:"breakfast"`
	Lunch     Meal   `json:"lunch"`
	Dinner    Meal   `json:"dinner"`
	Snacks    []Meal `json:"snacks"`
}

// Meal is one dish with its calorie and macro summary.
type Meal struct {
	Name        string   `json:"name"`
	Calories    string   `json:"calories"`
	Ingredients []string `json:"ingredients"`
	Macros      string   `json:"macros"`
}

// Validate enforces the declared plan shape.
func (p FitnessPlan) Validate() error {
	if len(p.WorkoutPlan) == 0 {
		return errors.New("workoutPlan must contain at least one day")
	}
	for i, day := range p.WorkoutPlan {
		if strings.TrimSpace(day.Day) == "" {
			return fmt.Errorf("workoutPlan[%d].day is required", i)
		}
		for j, ex := range day.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return fmt.Errorf("workoutPlan[%d].exercises[%d].name is required", i, j)
			}
		}
	}
	meals := []struct {
		label string
		meal  Meal
	}{
		{"breakfast", p.DietPlan.Breakfast},
		{"lunch", p.DietPlan.Lunch},
		{"dinner", p.DietPlan.Dinner},
	}
	for _, m := range meals {
		if strings.TrimSpace(m.meal.Name) == "" {
			return fmt.Errorf("dietPlan.%s.name is required", m.label)
		}
	}
	for i, snack := range p.DietPlan.Snacks {
		if strings.TrimSpace(snack.Name) == "" {
			return fmt.Errorf("dietPlan.snacks[%d].name is required", i)
		}
	}
	return nil
}

// Parse decodes model output into a plan and validates it.
// Missing arrays decode as empty rather than null.
func Parse(raw string) (FitnessPlan, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return FitnessPlan{}, errors.New("empty plan text")
	}
	var p FitnessPlan
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return FitnessPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return FitnessPlan{}, err
	}
	return p, nil
}

func (p *FitnessPlan) normalize() {
	for i := range p.WorkoutPlan {
		if p.WorkoutPlan[i].Exercises == nil {
			p.WorkoutPlan[i].Exercises = []Exercise{}
		}
	}
	if p.DietPlan.Snacks == nil {
		p.DietPlan.Snacks = []Meal{}
	}
	for _, m := range []*Meal{&p.DietPlan.Breakfast, &p.DietPlan.Lunch, &p.DietPlan.Dinner} {
		if m.Ingredients == nil {
			m.Ingredients = []string{}
		}
	}
	for i := range p.DietPlan.Snacks {
		if p.DietPlan.Snacks[i].Ingredients == nil {
			p.DietPlan.Snacks[i].Ingredients = []string{}
		}
	}
}

// stripCodeFence removes a surrounding ```json fence some models add despite JSON mode.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
