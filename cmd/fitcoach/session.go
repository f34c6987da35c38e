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
	"fitcoach/internal/session"
)

// fitcoach session show|clear
func cmdSession(args []string) error {
	if len(args) == 0 || (args[0] != "show" && args[0] != "clear") {
		return errors.New(`usage: fitcoach session show|clear [flags]`)
	}
	action := args[0]

	var cf commonFlags
	var sessionID string
	var backend, dataDir stringFlag
	fs := flag.NewFlagSet("session "+action, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.StringVar(&sessionID, "session", "cli", "Session id")
	fs.Var(&backend, "backend", "Session backend: badger, memory or s3")
	fs.Var(&dataDir, "data-dir", "Badger data directory")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	setupLogger(cf.logLevel)
	cfg, err := loadConfig(cf, cfgpkg.Overrides{SessionBackend: backend.ptr(), DataDir: dataDir.ptr()})
	if err != nil {
		return err
	}
	if err := cfgpkg.ValidateForSession(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if action == "clear" {
		if err := store.Clear(ctx, sessionID); err != nil {
			return err
		}
		slog.Info("session cleared", "session", sessionID, "backend", cfg.SessionBackend)
		return nil
	}

	st, err := session.Load(ctx, store, sessionID)
	if err != nil {
		return err
	}
	if st.Plan == nil && st.Profile == nil {
		return fmt.Errorf("session %q is empty", sessionID)
	}
	if st.Plan != nil && st.Profile != nil {
		renderPlan(os.Stdout, *st.Profile, *st.Plan)
		return nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(b))
	return nil
}
