package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fitcoach/internal/config"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
)

// Slot names under which a session keeps its state.
const (
	SlotPlan    = "fitnessPlan"
	SlotProfile = "userProfile"
)

// Slots lists every slot Clear removes.
var Slots = []string{SlotPlan, SlotProfile}

// ErrNotFound is returned by Get when the slot holds no value.
var ErrNotFound = errors.New("session value not found")

// ErrInvalidID rejects empty ids and ids containing a key separator.
var ErrInvalidID = errors.New("invalid session id")

// Store persists raw slot values per session.
type Store interface {
	Get(ctx context.Context, sessionID, slot string) ([]byte, error)
	Set(ctx context.Context, sessionID, slot string, value []byte) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Open builds the store selected by cfg.SessionBackend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.SessionBackend)) {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendBadger, "":
		return OpenBadger(cfg.DataDir)
	case config.BackendS3:
		return OpenS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.Region)
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.SessionBackend)
	}
}

func checkKey(sessionID, slot string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	if slot != SlotPlan && slot != SlotProfile {
		return fmt.Errorf("unknown session slot %q", slot)
	}
	return nil
}

func checkID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" || strings.ContainsAny(sessionID, "/:") {
		return fmt.Errorf("%w %q", ErrInvalidID, sessionID)
	}
	return nil
}

// State is everything a session remembers.
type State struct {
	Plan    *plan.FitnessPlan    `json:"fitnessPlan,omitempty"`
	Profile *profile.UserProfile `json:"userProfile,omitempty"`
}

// Save writes the plan and profile together.
func Save(ctx context.Context, s Store, sessionID string, p plan.FitnessPlan, up profile.UserProfile) error {
	planJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	profileJSON, err := json.Marshal(up)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.Set(ctx, sessionID, SlotProfile, profileJSON); err != nil {
		return err
	}
	return s.Set(ctx, sessionID, SlotPlan, planJSON)
}

// Load reads whatever the session holds. Missing slots stay nil.
func Load(ctx context.Context, s Store, sessionID string) (State, error) {
	var st State
	raw, err := s.Get(ctx, sessionID, SlotPlan)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return st, err
	default:
		var p plan.FitnessPlan
		if err := json.Unmarshal(raw, &p); err != nil {
			return st, fmt.Errorf("decode stored plan: %w", err)
		}
		st.Plan = &p
	}
	raw, err = s.Get(ctx, sessionID, SlotProfile)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return st, err
	default:
		var up profile.UserProfile
		if err := json.Unmarshal(raw, &up); err != nil {
			return st, fmt.Errorf("decode stored profile: %w", err)
		}
		st.Profile = &up
	}
	return st, nil
}
