package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"

	BackendBadger = "badger"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config holds resolved configuration values after merging file, env, and flags.
type Config struct {
	TextProvider              string `json:"textProvider,omitempty" yaml:"textProvider,omitempty"`
	TextModel                 string `json:"textModel,omitempty" yaml:"textModel,omitempty"`
	ImageModel                string `json:"imageModel,omitempty" yaml:"imageModel,omitempty"`
	FallbackImageURL          string `json:"fallbackImageUrl,omitempty" yaml:"fallbackImageUrl,omitempty"`
	TTSProvider               string `json:"ttsProvider,omitempty" yaml:"ttsProvider,omitempty"`
	TTSModel                  string `json:"ttsModel,omitempty" yaml:"ttsModel,omitempty"`
	Voice                     string `json:"voice,omitempty" yaml:"voice,omitempty"`
	SessionBackend            string `json:"sessionBackend,omitempty" yaml:"sessionBackend,omitempty"`
	DataDir                   string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`
	S3Bucket                  string `json:"s3Bucket,omitempty" yaml:"s3Bucket,omitempty"`
	S3Prefix                  string `json:"s3Prefix,omitempty" yaml:"s3Prefix,omitempty"`
	Region                    string `json:"region,omitempty" yaml:"region,omitempty"`
	Port                      string `json:"port,omitempty" yaml:"port,omitempty"`
	MotivationIntervalSeconds int    `json:"motivationIntervalSeconds,omitempty" yaml:"motivationIntervalSeconds,omitempty"`
	Debug                     bool   `json:"debug,omitempty" yaml:"debug,omitempty"`
	Overwrite                 bool   `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`

	// Not persisted to file; sourced from env only.
	GeminiAPIKey     string `json:"-" yaml:"-"`
	OpenAIAPIKey     string `json:"-" yaml:"-"`
	ElevenLabsAPIKey string `json:"-" yaml:"-"`
}

// Overrides represents optional overrides from env or flags.
// Only non-nil pointers are applied during merge.
type Overrides struct {
	TextProvider              *string
	TextModel                 *string
	ImageModel                *string
	FallbackImageURL          *string
	TTSProvider               *string
	TTSModel                  *string
	Voice                     *string
	SessionBackend            *string
	DataDir                   *string
	S3Bucket                  *string
	S3Prefix                  *string
	Region                    *string
	Port                      *string
	MotivationIntervalSeconds *int
	Debug                     *bool
	Overwrite                 *bool
}

// Secrets are provider credentials read from the environment.
type Secrets struct {
	GeminiAPIKey     string
	OpenAIAPIKey     string
	ElevenLabsAPIKey string
}

// Per-provider model and voice defaults.
var (
	textModelDefaults = map[string]string{
		ProviderGemini: "gemini-2.5-flash",
		ProviderOpenAI: "gpt-4o-mini",
	}
	ttsModelDefaults = map[string]string{
		ProviderElevenLabs: "eleven_multilingual_v2",
		ProviderOpenAI:     "gpt-4o-mini-tts",
	}
	voiceDefaults = map[string]string{
		ProviderElevenLabs: "JBFqnCBsd6RMkjVDRZzb",
		ProviderOpenAI:     "alloy",
	}
)

func Default() Config {
	return Config{
		TextProvider:              ProviderGemini,
		TextModel:                 textModelDefaults[ProviderGemini],
		ImageModel:                "gemini-2.5-flash-image",
		FallbackImageURL:          "https://image.pollinations.ai/prompt/",
		TTSProvider:               ProviderElevenLabs,
		TTSModel:                  ttsModelDefaults[ProviderElevenLabs],
		Voice:                     voiceDefaults[ProviderElevenLabs],
		SessionBackend:            BackendBadger,
		DataDir:                   filepath.Join(".fitcoach", "data"),
		S3Prefix:                  "fitcoach",
		Port:                      "8080",
		MotivationIntervalSeconds: 60,
	}
}

// MotivationInterval returns the motivation refresh period.
func (c Config) MotivationInterval() time.Duration {
	if c.MotivationIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.MotivationIntervalSeconds) * time.Second
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFile reads a JSON or YAML config. If file not found, returns defaults and no error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	return cfg, nil
}

// FromEnv reads env vars and returns overrides and provider credentials.
func FromEnv() (Overrides, Secrets) {
	var ov Overrides
	str := func(key string, dst **string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = &[]string{v}[0]
		}
	}
	str("FITCOACH_TEXT_PROVIDER", &ov.TextProvider)
	str("FITCOACH_TEXT_MODEL", &ov.TextModel)
	str("FITCOACH_IMAGE_MODEL", &ov.ImageModel)
	str("FITCOACH_FALLBACK_IMAGE_URL", &ov.FallbackImageURL)
	str("FITCOACH_TTS_PROVIDER", &ov.TTSProvider)
	str("FITCOACH_TTS_MODEL", &ov.TTSModel)
	str("FITCOACH_VOICE", &ov.Voice)
	str("FITCOACH_SESSION_BACKEND", &ov.SessionBackend)
	str("FITCOACH_DATA_DIR", &ov.DataDir)
	str("AWS_S3_BUCKET", &ov.S3Bucket)
	str("AWS_S3_PREFIX", &ov.S3Prefix)
	str("AWS_REGION", &ov.Region)
	str("PORT", &ov.Port)

	if v, ok := os.LookupEnv("FITCOACH_MOTIVATION_INTERVAL"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			ov.MotivationIntervalSeconds = &n
		}
	}
	if v, ok := os.LookupEnv("FITCOACH_DEBUG"); ok {
		if b, err := parseBool(v); err == nil {
			ov.Debug = &[]bool{b}[0]
		}
	}
	if v, ok := os.LookupEnv("FITCOACH_OVERWRITE"); ok {
		if b, err := parseBool(v); err == nil {
			ov.Overwrite = &[]bool{b}[0]
		}
	}
	secrets := Secrets{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
	}
	return ov, secrets
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return false, fmt.Errorf("empty bool")
	}
	if s == "1" || s == "t" || s == "true" || s == "y" || s == "yes" || s == "on" {
		return true, nil
	}
	if s == "0" || s == "f" || s == "false" || s == "n" || s == "no" || s == "off" {
		return false, nil
	}
	// try strconv
	return strconv.ParseBool(s)
}

// Merge applies overrides in order: file -> env -> flags.
func Merge(fileCfg Config, env Overrides, flags Overrides, secrets Secrets) Config {
	cfg := fileCfg

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply := func(ov Overrides) {
		setStr(&cfg.TextProvider, ov.TextProvider)
		setStr(&cfg.TextModel, ov.TextModel)
		setStr(&cfg.ImageModel, ov.ImageModel)
		setStr(&cfg.FallbackImageURL, ov.FallbackImageURL)
		setStr(&cfg.TTSProvider, ov.TTSProvider)
		setStr(&cfg.TTSModel, ov.TTSModel)
		setStr(&cfg.Voice, ov.Voice)
		setStr(&cfg.SessionBackend, ov.SessionBackend)
		setStr(&cfg.DataDir, ov.DataDir)
		setStr(&cfg.S3Bucket, ov.S3Bucket)
		setStr(&cfg.S3Prefix, ov.S3Prefix)
		setStr(&cfg.Region, ov.Region)
		setStr(&cfg.Port, ov.Port)
		if ov.MotivationIntervalSeconds != nil {
			cfg.MotivationIntervalSeconds = *ov.MotivationIntervalSeconds
		}
		if ov.Debug != nil {
			cfg.Debug = *ov.Debug
		}
		if ov.Overwrite != nil {
			cfg.Overwrite = *ov.Overwrite
		}
	}

	apply(env)
	apply(flags)
	followProvider(&cfg.TextModel, cfg.TextProvider, textModelDefaults)
	followProvider(&cfg.TTSModel, cfg.TTSProvider, ttsModelDefaults)
	followProvider(&cfg.Voice, cfg.TTSProvider, voiceDefaults)

	cfg.GeminiAPIKey = secrets.GeminiAPIKey
	cfg.OpenAIAPIKey = secrets.OpenAIAPIKey
	cfg.ElevenLabsAPIKey = secrets.ElevenLabsAPIKey
	return cfg
}

// followProvider swaps an empty value, or one still holding another
// provider's default, for the selected provider's default.
func followProvider(dst *string, provider string, defaults map[string]string) {
	want, ok := defaults[normalize(provider)]
	if !ok {
		return
	}
	if *dst == "" {
		*dst = want
		return
	}
	for _, v := range defaults {
		if *dst == v {
			*dst = want
			return
		}
	}
}

// Load is the common path for commands: .env, then file, env, and flags.
func Load(envFile, path string, flags Overrides) (Config, error) {
	if err := LoadDotEnv(envFile); err != nil {
		return Config{}, err
	}
	fileCfg, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	env, secrets := FromEnv()
	return Merge(fileCfg, env, flags, secrets), nil
}

// Validation helpers
func ValidateForText(cfg Config) error {
	switch normalize(cfg.TextProvider) {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for text generation")
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for text generation")
		}
	default:
		return fmt.Errorf("unsupported text provider: %s", cfg.TextProvider)
	}
	if cfg.TextModel == "" {
		return errors.New("text model is required")
	}
	return nil
}

func ValidateForImage(cfg Config) error {
	if cfg.ImageModel == "" {
		return errors.New("image model is required")
	}
	if cfg.FallbackImageURL == "" {
		return errors.New("fallback image url is required")
	}
	return nil
}

// ValidateForSpeech checks provider selection only; a missing credential
// is reported per call by the synthesizer.
func ValidateForSpeech(cfg Config) error {
	switch normalize(cfg.TTSProvider) {
	case ProviderElevenLabs, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported tts provider: %s", cfg.TTSProvider)
	}
	if cfg.Voice == "" {
		return errors.New("voice is required")
	}
	return nil
}

func ValidateForSession(cfg Config) error {
	switch normalize(cfg.SessionBackend) {
	case BackendMemory:
	case BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("data dir is required for the badger session backend")
		}
	case BackendS3:
		if cfg.S3Bucket == "" {
			return errors.New("S3 bucket is required for the s3 session backend")
		}
		if cfg.Region == "" {
			return errors.New("AWS region is required for the s3 session backend")
		}
	default:
		return fmt.Errorf("unsupported session backend: %s", cfg.SessionBackend)
	}
	return nil
}

func ValidateForServe(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port is required")
	}
	for _, check := range []func(Config) error{ValidateForText, ValidateForImage, ValidateForSpeech, ValidateForSession} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
