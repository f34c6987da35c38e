package speech

import (
	"fmt"
	"strings"

	"fitcoach/internal/plan"
)

// WorkoutScript narrates the first workout day.
func WorkoutScript(days []plan.WorkoutDay) string {
	if len(days) == 0 {
		return "You have no workouts scheduled."
	}
	day := days[0]
	var b strings.Builder
	fmt.Fprintf(&b, "Here is your workout plan for %s. The focus is %s. ",
		orDefault(day.Day, "Day 1"), orDefault(day.Focus, "General Fitness"))
	for i, ex := range day.Exercises {
		fmt.Fprintf(&b, "Exercise %d: %s. Do %d sets of %s repetitions. ", i+1, ex.Name, ex.Sets, ex.Reps)
		if ex.Notes != "" {
			fmt.Fprintf(&b, "Tip: %s. ", ex.Notes)
		}
	}
	return strings.TrimSpace(b.String())
}

// DietScript narrates the named meals and snacks.
func DietScript(diet *plan.DietPlan) string {
	if diet == nil {
		return "No diet plan available."
	}
	var b strings.Builder
	b.WriteString("Here is your nutrition plan. ")
	for _, m := range []struct{ label, name string }{
		{"Breakfast", diet.Breakfast.Name},
		{"Lunch", diet.Lunch.Name},
		{"Dinner", diet.Dinner.Name},
	} {
		if m.name != "" {
			fmt.Fprintf(&b, "For %s, have %s. ", m.label, m.name)
		}
	}
	if len(diet.Snacks) > 0 {
		names := make([]string, 0, len(diet.Snacks))
		for _, s := range diet.Snacks {
			names = append(names, s.Name)
		}
		fmt.Fprintf(&b, "For snacks, you can have %s. ", strings.Join(names, " or "))
	}
	return strings.TrimSpace(b.String())
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
