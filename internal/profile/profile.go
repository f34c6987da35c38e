// Package profile validates and normalizes the fitness intake form.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	Genders            = []string{"Male", "Female", "Other"}
	Goals              = []string{"Weight Loss", "Muscle Gain", "Endurance Training", "General Fitness", "Flexibility & Mobility"}
	Levels             = []string{"Beginner", "Intermediate", "Advanced"}
	Locations          = []string{"Gym", "Home (No Equipment)", "Home (Dumbbells/Bands)", "Outdoor"}
	DietaryPreferences = []string{"Vegetarian", "Non-Vegetarian", "Vegan", "Keto", "Paleo", "No Preference"}
	StressLevels       = []string{"Low", "Medium", "High"}
)

const (
	minNameLen     = 2
	minAge         = 10
	maxAge         = 100
	minHeightCM    = 50
	minWeightKG    = 20
	minDays        = 1
	maxDays        = 7
	defaultDaysPer = 3
)

// UserProfile is a validated intake form. Treat it as immutable once built.
type UserProfile struct {
	Name              string  `json:"name"`
	Age               float64 `json:"age"`
	Gender            string  `json:"gender"`
	HeightCM          float64 `json:"height"`
	WeightKG          float64 `json:"weight"`
	Goal              string  `json:"goal"`
	Level             string  `json:"level"`
	Location          string  `json:"location"`
	DietaryPreference string  `json:"dietaryPreference"`
	DaysPerWeek       float64 `json:"daysPerWeek"`
	MedicalHistory    string  `json:"medicalHistory,omitempty"`
	StressLevel       string  `json:"stressLevel,omitempty"`
}

// Input is the raw form submission. Numeric fields accept JSON numbers or numeric strings.
type Input struct {
	Name              string `json:"name"`
	Age               Number `json:"age"`
	Gender            string `json:"gender"`
	Height            Number `json:"height"`
	Weight            Number `json:"weight"`
	Goal              string `json:"goal"`
	Level             string `json:"level"`
	Location          string `json:"location"`
	DietaryPreference string `json:"dietaryPreference"`
	DaysPerWeek       Number `json:"daysPerWeek"`
	MedicalHistory    string `json:"medicalHistory"`
	StressLevel       string `json:"stressLevel"`
}

// Number is an optional numeric form value.
type Number struct {
	Value float64
	Set   bool
	raw   string
}

// NumberOf returns a set Number.
func NumberOf(v float64) Number { return Number{Value: v, Set: true} }

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// keep the raw text so validation can report it against the field
			*n = Number{raw: s}
			return nil
		}
		*n = Number{Value: v, Set: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number{Value: v, Set: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Parse decodes a JSON form submission and validates it.
func Parse(data []byte) (UserProfile, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	return in.Validate()
}

// Validate checks every field and returns the normalized profile or a ValidationError.
func (in Input) Validate() (UserProfile, error) {
	var errs ValidationError
	var p UserProfile

	p.Name = strings.TrimSpace(in.Name)
	if len([]rune(p.Name)) < minNameLen {
		errs = errs.add("name", "Name must be at least 2 characters.")
	}

	if age, msg := inRange(in.Age, minAge, maxAge, "Please enter a valid age."); msg != "" {
		errs = errs.add("age", msg)
	} else {
		p.Age = age
	}

	p.Gender = enumField(&errs, "gender", in.Gender, Genders, true)

	if !in.Height.Set || in.Height.Value < minHeightCM || !finite(in.Height.Value) {
		errs = errs.add("height", "Height in cm is required.")
	} else {
		p.HeightCM = in.Height.Value
	}
	if !in.Weight.Set || in.Weight.Value < minWeightKG || !finite(in.Weight.Value) {
		errs = errs.add("weight", "Weight in kg is required.")
	} else {
		p.WeightKG = in.Weight.Value
	}

	p.Goal = enumField(&errs, "goal", in.Goal, Goals, true)
	p.Level = enumField(&errs, "level", in.Level, Levels, true)
	p.Location = enumField(&errs, "location", in.Location, Locations, true)
	p.DietaryPreference = enumField(&errs, "dietaryPreference", in.DietaryPreference, DietaryPreferences, true)

	days := in.DaysPerWeek
	if !days.Set && days.raw == "" {
		days = NumberOf(defaultDaysPer)
	}
	if d, msg := inRange(days, minDays, maxDays, "Days per week must be between 1 and 7."); msg != "" {
		errs = errs.add("daysPerWeek", msg)
	} else {
		p.DaysPerWeek = d
	}

	p.MedicalHistory = strings.TrimSpace(in.MedicalHistory)
	p.StressLevel = enumField(&errs, "stressLevel", in.StressLevel, StressLevels, false)

	if len(errs) > 0 {
		return UserProfile{}, errs
	}
	return p, nil
}

// Input converts a profile back to its form representation.
func (p UserProfile) Input() Input {
	return Input{
		Name:              p.Name,
		Age:               NumberOf(p.Age),
		Gender:            p.Gender,
		Height:            NumberOf(p.HeightCM),
		Weight:            NumberOf(p.WeightKG),
		Goal:              p.Goal,
		Level:             p.Level,
		Location:          p.Location,
		DietaryPreference: p.DietaryPreference,
		DaysPerWeek:       NumberOf(p.DaysPerWeek),
		MedicalHistory:    p.MedicalHistory,
		StressLevel:       p.StressLevel,
	}
}

// Validate re-checks an already built profile.
func (p UserProfile) Validate() error {
	_, err := p.Input().Validate()
	return err
}

// inRange accepts any finite value in [lo, hi]; fractions such as an age of 29.5 pass.
func inRange(n Number, lo, hi float64, msg string) (float64, string) {
	if !n.Set || !finite(n.Value) || n.Value < lo || n.Value > hi {
		return 0, msg
	}
	return n.Value, ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// canonical matches value case-insensitively against allowed and returns the canonical spelling.
func canonical(value string, allowed []string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return a, true
		}
	}
	return "", false
}
