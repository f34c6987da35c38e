package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fitcoach/internal/profile"
)

const systemInstruction = `You are an elite Fitness Coach & Nutritionist.
Generate a strictly valid JSON response containing a 'workoutPlan' and 'dietPlan' based on the user's profile.

CRITICAL OUTPUT STRUCTURE:
You must return a JSON object with EXACTLY this structure:
{
  "workoutPlan": [
    {
      "day": "Monday",
      "focus": "Push Day",
      "exercises": [
        { "name": "Bench Press", "sets": 3, "reps": "10-12", "rest": "60s", "notes": "Focus on chest" }
      ]
    }
  ],
  "dietPlan": {
    "breakfast": { "name": "Oats", "calories": "400 kcal", "ingredients": ["Oats", "Milk"], "macros": "20g Protein" },
    "lunch": { "name": "Chicken Salad", "calories": "600 kcal", "ingredients": ["Chicken", "Lettuce"], "macros": "40g Protein" },
    "dinner": { "name": "Fish", "calories": "500 kcal", "ingredients": ["Fish", "Rice"], "macros": "30g Protein" },
    "snacks": [
      { "name": "Apple", "calories": "100 kcal", "ingredients": ["Apple"], "macros": "20g Carbs" }
    ]
  }
}

"sets" is an integer. "reps", "rest", "calories" and "macros" are strings.
Do NOT include motivation or tips in this response. Output JSON only, with no commentary.`

// SystemInstruction returns the fixed instruction describing the plan shape.
func SystemInstruction() string { return systemInstruction }

// BuildUserPrompt embeds the serialized profile and calls out the goal and dietary preference.
func BuildUserPrompt(p profile.UserProfile) (string, error) {
	if strings.TrimSpace(p.Goal) == "" {
		return "", errors.New("goal is required")
	}
	if strings.TrimSpace(p.DietaryPreference) == "" {
		return "", errors.New("dietary preference is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "User Profile: %s\n\n", raw)
	b.WriteString("Requirements:\n")
	fmt.Fprintf(&b, "1. Workout: %g training days with detailed sets, reps, and rest times tailored to their goal (%s).\n", p.DaysPerWeek, p.Goal)
	fmt.Fprintf(&b, "2. Diet: Specific meals with macros tailored to their dietary preference (%s).", p.DietaryPreference)
	return b.String(), nil
}
