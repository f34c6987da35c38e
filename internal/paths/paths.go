package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	defaultBaseDir         = "out"
	defaultPlanFilename    = "plan.json"
	defaultProfileFilename = "profile.json"
)

// Builder constructs output paths rooted at Base (default "out").
type Builder struct {
	Base string
}

func New(base string) *Builder {
	if base == "" {
		base = defaultBaseDir
	}
	return &Builder{Base: base}
}

// OutDir returns the date-based output directory: Base/YYYY/MM/DD
func (b *Builder) OutDir(t time.Time) string {
	y, m, d := t.UTC().Date()
	return filepath.Join(b.Base, fmt.Sprintf("%04d", y), fmt.Sprintf("%02d", int(m)), fmt.Sprintf("%02d", d))
}

func (b *Builder) PlanJSON(t time.Time) string {
	return filepath.Join(b.OutDir(t), defaultPlanFilename)
}
func (b *Builder) ProfileJSON(t time.Time) string {
	return filepath.Join(b.OutDir(t), defaultProfileFilename)
}

// SpeechMP3 names narration audio after what it narrates, e.g. "workout.mp3".
func (b *Builder) SpeechMP3(t time.Time, name string) string {
	return filepath.Join(b.OutDir(t), Slug(name, "speech")+".mp3")
}

// ImagePNG names a generated image after its description.
func (b *Builder) ImagePNG(t time.Time, kind, description string) string {
	return filepath.Join(b.OutDir(t), Slug(kind, "image")+"-"+Slug(description, "untitled")+".png")
}

// EnsureOutDir creates the date-based directory if it does not exist.
func (b *Builder) EnsureOutDir(t time.Time) error {
	dir := b.OutDir(t)
	return os.MkdirAll(dir, 0o755)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses everything but letters and digits into dashes.
func Slug(s, fallback string) string {
	out := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	if out == "" {
		return fallback
	}
	return out
}

// CheckOverwrite enforces overwrite behavior. If any path exists and overwrite is false, returns error.
func CheckOverwrite(paths []string, overwrite bool) error {
	if overwrite {
		return nil
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("refusing to overwrite existing file: %s (use --overwrite)", p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking file: %s: %w", p, err)
		}
	}
	return nil
}
