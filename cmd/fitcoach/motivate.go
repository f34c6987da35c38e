package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/motivation"
)

// fitcoach motivate
func cmdMotivate(args []string) error {
	var cf commonFlags
	var name, goal string
	var watch bool
	var count int
	var interval time.Duration

	fs := flag.NewFlagSet("motivate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.StringVar(&name, "name", "", "Name to address")
	fs.StringVar(&goal, "goal", "General Fitness", "Fitness goal")
	fs.BoolVar(&watch, "watch", false, "Keep refreshing on the motivation interval")
	fs.IntVar(&count, "count", 0, "With --watch, stop after this many updates (0 = until interrupted)")
	fs.DurationVar(&interval, "interval", 0, "With --watch, refresh interval (default from config)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	setupLogger(cf.logLevel)
	cfg, err := loadConfig(cf, cfgpkg.Overrides{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Motivation never fails visibly, so a client error only means fallback content.
	var gen *motivation.Generator
	if client, err := newTextClient(ctx, cfg); err == nil {
		gen = motivation.NewGenerator(client, cfg.TextModel)
	} else {
		gen = motivation.NewGenerator(nil, cfg.TextModel)
	}

	if !watch {
		renderMotivation(os.Stdout, gen.Generate(ctx, name, goal))
		return nil
	}

	if interval <= 0 {
		interval = cfg.MotivationInterval()
	}
	updates := make(chan motivation.Result, 1)
	ticker := motivation.NewTicker(gen, name, goal, interval, func(res motivation.Result) {
		select {
		case updates <- res:
		case <-ctx.Done():
		}
	})
	ticker.Start(ctx)
	defer ticker.Stop()

	for seen := 0; count == 0 || seen < count; seen++ {
		select {
		case <-ctx.Done():
			return nil
		case res := <-updates:
			renderMotivation(os.Stdout, res)
		}
	}
	return nil
}
