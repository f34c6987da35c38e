package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/imagegen"
	"fitcoach/internal/motivation"
	"fitcoach/internal/plan"
	"fitcoach/internal/server"
	"fitcoach/internal/speech"
)

var runServer = func(ctx context.Context, srv *server.Server, addr string) error {
	return srv.Run(ctx, addr)
}

// fitcoach serve
func cmdServe(args []string) error {
	var cf commonFlags
	var port, backend, dataDir stringFlag
	var origins string

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.Var(&port, "port", "Port to listen on (overrides config and PORT)")
	fs.Var(&backend, "session-backend", "Session backend: badger, memory or s3")
	fs.Var(&dataDir, "data-dir", "Badger data directory")
	fs.StringVar(&origins, "allowed-origins", "*", "Comma-separated CORS origins")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	setupLogger(cf.logLevel)
	cfg, err := loadConfig(cf, cfgpkg.Overrides{Port: port.ptr(), SessionBackend: backend.ptr(), DataDir: dataDir.ptr()})
	if err != nil {
		return err
	}
	if err := cfgpkg.ValidateForServe(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	textClient, err := newTextClient(ctx, cfg)
	if err != nil {
		return err
	}
	imageClient, err := newImageClient(ctx, cfg)
	if err != nil {
		return err
	}
	ttsClient, err := newTTSClient(cfg)
	if err != nil {
		return err
	}
	if ttsClient == nil {
		slog.Warn("speech provider key missing; speech requests will fail", "provider", cfg.TTSProvider)
	}
	store, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			slog.Warn("failed to close session store", "err", cerr)
		}
	}()

	srv := server.New(server.Deps{
		Plans:              plan.NewGenerator(textClient, cfg.TextModel),
		Motivation:         motivation.NewGenerator(textClient, cfg.TextModel),
		Images:             imagegen.NewGenerator(imageClient, cfg.ImageModel, cfg.FallbackImageURL),
		Speech:             speech.NewSynthesizer(ttsClient, cfg.TTSModel, cfg.Voice),
		Sessions:           store,
		MotivationInterval: cfg.MotivationInterval(),
		AllowedOrigins:     splitList(origins),
	})
	slog.Info(
		"serve start",
		"port", cfg.Port,
		"textProvider", cfg.TextProvider,
		"textModel", cfg.TextModel,
		"imageModel", cfg.ImageModel,
		"ttsProvider", cfg.TTSProvider,
		"sessionBackend", cfg.SessionBackend,
	)
	return runServer(ctx, srv, net.JoinHostPort("", cfg.Port))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
