package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/paths"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
	"fitcoach/internal/session"
)

// fitcoach plan
func cmdPlan(args []string) error {
	var cf commonFlags
	var profilePath, sessionID string
	var model stringFlag
	var overwrite boolFlag
	var quiet bool

	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.StringVar(&profilePath, "profile", "profile.json", "Path to a JSON user profile")
	fs.StringVar(&sessionID, "session", "cli", "Session id the plan is stored under")
	fs.Var(&model, "model", "Text model (overrides config)")
	fs.Var(&overwrite, "overwrite", "Allow overwriting existing outputs")
	fs.BoolVar(&quiet, "quiet", false, "Do not print the plan summary")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	setupLogger(cf.logLevel)
	date, err := resolveDate(cf.date)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cf, cfgpkg.Overrides{TextModel: model.ptr(), Overwrite: overwrite.ptr()})
	if err != nil {
		return err
	}
	if err := cfgpkg.ValidateForText(cfg); err != nil {
		return err
	}
	if err := cfgpkg.ValidateForSession(cfg); err != nil {
		return err
	}

	raw, err := os.ReadFile(profilePath)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	up, err := profile.Parse(raw)
	if err != nil {
		return err
	}

	builder := paths.New("")
	planPath := builder.PlanJSON(date)
	profilePathOut := builder.ProfileJSON(date)
	if err := paths.CheckOverwrite([]string{planPath, profilePathOut}, cfg.Overwrite); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := newTextClient(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("plan start", "name", up.Name, "goal", up.Goal, "model", cfg.TextModel)
	res := plan.NewGenerator(client, cfg.TextModel).Generate(ctx, up)
	if !res.Success {
		return errors.New(res.Error)
	}

	if err := builder.EnsureOutDir(date); err != nil {
		return err
	}
	if err := writeJSONFile(planPath, res.Data); err != nil {
		return err
	}
	if err := writeJSONFile(profilePathOut, up); err != nil {
		return err
	}

	store, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := session.Save(ctx, store, sessionID, *res.Data, up); err != nil {
		return err
	}

	if !quiet {
		renderPlan(os.Stdout, up, *res.Data)
	}
	slog.Info(
		"plan generated",
		"date", date.Format("2006-01-02"),
		"session", sessionID,
		"days", len(res.Data.WorkoutPlan),
		"path", planPath,
	)
	return nil
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
