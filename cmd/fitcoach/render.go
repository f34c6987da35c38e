package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"fitcoach/internal/motivation"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
)

func renderPlan(w io.Writer, up profile.UserProfile, fp plan.FitnessPlan) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	cyan := color.New(color.FgCyan, color.Bold)

	bold.Fprintf(w, "Your Personal Blueprint\n")
	faint.Fprintf(w, "Designed for %s • %s\n\n", up.Goal, up.Level)

	cyan.Fprintf(w, "Workout\n")
	for _, day := range fp.WorkoutPlan {
		bold.Fprintf(w, "  %s", day.Day)
		faint.Fprintf(w, "  %s\n", day.Focus)
		for _, ex := range day.Exercises {
			fmt.Fprintf(w, "    %s %d x %s", padRight(ex.Name, 24), ex.Sets, ex.Reps)
			if ex.Rest != "" {
				faint.Fprintf(w, "  rest %s", ex.Rest)
			}
			fmt.Fprintln(w)
			if ex.Notes != "" {
				faint.Fprintf(w, "      %s\n", ex.Notes)
			}
		}
	}

	cyan.Fprintf(w, "\nNutrition\n")
	renderMeal(w, "Breakfast", fp.DietPlan.Breakfast)
	renderMeal(w, "Lunch", fp.DietPlan.Lunch)
	renderMeal(w, "Dinner", fp.DietPlan.Dinner)
	for _, s := range fp.DietPlan.Snacks {
		renderMeal(w, "Snack", s)
	}
}

func renderMeal(w io.Writer, label string, m plan.Meal) {
	faint := color.New(color.Faint)
	fmt.Fprintf(w, "  %s %s", padRight(label, 10), m.Name)
	if m.Calories != "" {
		color.New(color.FgYellow).Fprintf(w, "  %s", m.Calories)
	}
	if m.Macros != "" {
		faint.Fprintf(w, "  %s", m.Macros)
	}
	fmt.Fprintln(w)
	if len(m.Ingredients) > 0 {
		faint.Fprintf(w, "             %s\n", strings.Join(m.Ingredients, ", "))
	}
}

func renderMotivation(w io.Writer, res motivation.Result) {
	color.New(color.FgMagenta, color.Italic).Fprintf(w, "\"%s\"\n", res.Data.Quote)
	for _, tip := range res.Data.Tips {
		fmt.Fprintf(w, "  %s %s\n", color.YellowString("✦"), tip)
	}
	if res.Degraded {
		color.New(color.Faint).Fprintln(w, "  (offline fallback)")
	}
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
