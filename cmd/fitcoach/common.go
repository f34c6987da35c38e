package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	cfgpkg "fitcoach/internal/config"
)

// set up slog logger according to level; defaults to info.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// Common flags for date/config/env-file/log-level across subcommands
type commonFlags struct {
	date     string
	config   string
	envFile  string
	logLevel string
}

func addCommonFlags(fs *flag.FlagSet, cf *commonFlags) {
	fs.StringVar(&cf.date, "date", "", "Date in YYYY-MM-DD (UTC) for output paths; default: today")
	fs.StringVar(&cf.config, "config", "fitcoach.json", "Path to config file (.json, .yaml or .yml)")
	fs.StringVar(&cf.envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
	fs.StringVar(&cf.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func resolveDate(in string) (time.Time, error) {
	if in == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", in)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date: %w", err)
	}
	return t, nil
}

// stringFlag records whether the flag was given so unset flags do not override config.
type stringFlag struct {
	v   string
	set bool
}

func (f *stringFlag) String() string { return f.v }
func (f *stringFlag) Set(s string) error {
	f.v = s
	f.set = true
	return nil
}

// ptr returns nil when the flag was not given.
func (f *stringFlag) ptr() *string {
	if !f.set {
		return nil
	}
	return &f.v
}

type boolFlag struct {
	v   bool
	set bool
}

func (f *boolFlag) String() string { return strconv.FormatBool(f.v) }
func (f *boolFlag) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.v = b
	f.set = true
	return nil
}
func (f *boolFlag) IsBoolFlag() bool { return true }

func (f *boolFlag) ptr() *bool {
	if !f.set {
		return nil
	}
	return &f.v
}

// loadConfig applies the shared precedence: .env, then file, env vars, flags.
func loadConfig(cf commonFlags, flagOv cfgpkg.Overrides) (cfgpkg.Config, error) {
	return cfgpkg.Load(cf.envFile, cf.config, flagOv)
}
