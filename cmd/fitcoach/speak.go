package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/paths"
	"fitcoach/internal/session"
	"fitcoach/internal/speech"
)

// fitcoach speak
func cmdSpeak(args []string) error {
	var cf commonFlags
	var text, section, sessionID, out string
	var voice, model stringFlag
	var overwrite boolFlag

	fs := flag.NewFlagSet("speak", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.StringVar(&text, "text", "", "Text to narrate")
	fs.StringVar(&section, "section", "", "Narrate the stored plan instead: workout or diet")
	fs.StringVar(&sessionID, "session", "cli", "Session id holding the plan (with --section)")
	fs.StringVar(&out, "out", "", "Output MP3 path (default out/YYYY/MM/DD/<section>.mp3)")
	fs.Var(&voice, "voice", "TTS voice (overrides config)")
	fs.Var(&model, "model", "TTS model (overrides config)")
	fs.Var(&overwrite, "overwrite", "Allow overwriting existing outputs")

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
	cfg, err := loadConfig(cf, cfgpkg.Overrides{Voice: voice.ptr(), TTSModel: model.ptr(), Overwrite: overwrite.ptr()})
	if err != nil {
		return err
	}
	if err := cfgpkg.ValidateForSpeech(cfg); err != nil {
		return err
	}
	ctx := context.Background()

	section = strings.ToLower(strings.TrimSpace(section))
	if section != "" {
		text, err = sectionScript(ctx, cfg, sessionID, section)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("--text or --section is required")
	}

	builder := paths.New("")
	if out == "" {
		name := section
		if name == "" {
			name = "speech"
		}
		out = builder.SpeechMP3(date, name)
		if err := builder.EnsureOutDir(date); err != nil {
			return err
		}
	}
	if err := paths.CheckOverwrite([]string{out}, cfg.Overwrite); err != nil {
		return err
	}

	client, err := newTTSClient(cfg)
	if err != nil {
		return err
	}
	res := speech.NewSynthesizer(client, cfg.TTSModel, cfg.Voice).Synthesize(ctx, text)
	if !res.Success {
		return errors.New(res.Error)
	}
	audio, err := speech.DecodeDataURI(res.Audio)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, audio, 0o644); err != nil {
		return err
	}
	slog.Info(
		"speech generated",
		"voice", cfg.Voice,
		"ttsModel", cfg.TTSModel,
		"ttsProvider", cfg.TTSProvider,
		"bytes", len(audio),
		"path", out,
	)
	return nil
}

func sectionScript(ctx context.Context, cfg cfgpkg.Config, sessionID, section string) (string, error) {
	if section != "workout" && section != "diet" {
		return "", fmt.Errorf("unknown --section %q (want workout or diet)", section)
	}
	store, err := openSessions(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()
	st, err := session.Load(ctx, store, sessionID)
	if err != nil {
		return "", err
	}
	if st.Plan == nil {
		return "", fmt.Errorf("no plan stored in session %q; run fitcoach plan first", sessionID)
	}
	if section == "workout" {
		return speech.WorkoutScript(st.Plan.WorkoutPlan), nil
	}
	return speech.DietScript(&st.Plan.DietPlan), nil
}
