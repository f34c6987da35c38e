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
	"fitcoach/internal/imagegen"
	"fitcoach/internal/paths"
)

// fitcoach image
func cmdImage(args []string) error {
	var cf commonFlags
	var description, kindText, out string
	var model stringFlag
	var overwrite boolFlag

	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addCommonFlags(fs, &cf)
	fs.StringVar(&description, "description", "", "Exercise or meal to illustrate")
	fs.StringVar(&kindText, "type", string(imagegen.KindWorkout), "Image type: workout or food")
	fs.StringVar(&out, "out", "", "Output PNG path (default out/YYYY/MM/DD/<type>-<description>.png)")
	fs.Var(&model, "model", "Image model (overrides config)")
	fs.Var(&overwrite, "overwrite", "Allow overwriting existing outputs")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	setupLogger(cf.logLevel)
	if strings.TrimSpace(description) == "" {
		return errors.New("--description is required")
	}
	kind, err := imagegen.ParseKind(kindText)
	if err != nil {
		return err
	}
	date, err := resolveDate(cf.date)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cf, cfgpkg.Overrides{ImageModel: model.ptr(), Overwrite: overwrite.ptr()})
	if err != nil {
		return err
	}
	if err := cfgpkg.ValidateForImage(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := newImageClient(ctx, cfg)
	if err != nil {
		return err
	}
	res := imagegen.NewGenerator(client, cfg.ImageModel, cfg.FallbackImageURL).Generate(ctx, description, kind)
	if !res.Success {
		return errors.New(res.Error)
	}
	if res.Degraded {
		fmt.Fprintln(os.Stdout, res.Image)
		slog.Info("image fallback url", "url", res.Image)
		return nil
	}

	data, err := imagegen.DecodeDataURI(res.Image)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	builder := paths.New("")
	if out == "" {
		out = builder.ImagePNG(date, string(kind), description)
		if err := builder.EnsureOutDir(date); err != nil {
			return err
		}
	}
	if err := paths.CheckOverwrite([]string{out}, cfg.Overwrite); err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	slog.Info("image generated", "kind", kind, "model", cfg.ImageModel, "bytes", len(data), "path", out)
	return nil
}
