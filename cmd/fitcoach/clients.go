package main

import (
	"context"
	"fmt"
	"strings"

	"fitcoach/internal/ai"
	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/session"
)

var newTextClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.TextClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TextProvider)) {
	case cfgpkg.ProviderGemini, "":
		return ai.NewGemini(ctx, cfg.GeminiAPIKey, "")
	case cfgpkg.ProviderOpenAI:
		return ai.New(cfg.OpenAIAPIKey, "")
	default:
		return nil, fmt.Errorf("unsupported text provider: %s", cfg.TextProvider)
	}
}

// newImageClient returns a nil client without a Gemini key; images then use the fallback URL.
var newImageClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.ImageClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	return ai.NewGemini(ctx, cfg.GeminiAPIKey, "")
}

// newTTSClient returns a nil client when the provider key is missing; synthesis then fails per call.
var newTTSClient = func(cfg cfgpkg.Config) (ai.TTSClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.TTSProvider)) {
	case cfgpkg.ProviderElevenLabs, "":
		if cfg.ElevenLabsAPIKey == "" {
			return nil, nil
		}
		return ai.NewElevenLabs(cfg.ElevenLabsAPIKey)
	case cfgpkg.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return ai.New(cfg.OpenAIAPIKey, "")
	default:
		return nil, fmt.Errorf("unsupported tts provider: %s", cfg.TTSProvider)
	}
}

var openSessions = func(ctx context.Context, cfg cfgpkg.Config) (session.Store, error) {
	return session.Open(ctx, cfg)
}
