package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fitcoach/internal/ai"
	cfgpkg "fitcoach/internal/config"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
	"fitcoach/internal/server"
	"fitcoach/internal/session"
)

const testPlanJSON = `{
  "workoutPlan": [
    {"day": "Monday", "focus": "Full Body", "exercises": [
      {"name": "Squat", "sets": 3, "reps": "10-12", "rest": "60s", "notes": "Keep chest up"}
    ]}
  ],
  "dietPlan": {
    "breakfast": {"name": "Tofu Scramble", "calories": "350 kcal", "ingredients": ["Tofu"], "macros": "25g Protein"},
    "lunch": {"name": "Lentil Bowl", "calories": "550 kcal", "ingredients": ["Lentils"], "macros": "30g Protein"},
    "dinner": {"name": "Chickpea Curry", "calories": "500 kcal", "ingredients": ["Chickpeas"], "macros": "20g Protein"},
    "snacks": [{"name": "Apple", "calories": "90 kcal", "ingredients": ["Apple"], "macros": "20g Carbs"}]
  }
}`

const testProfileJSON = `{"name":"Sam","age":30,"gender":"Male","height":180,"weight":80,"goal":"Weight Loss","level":"Beginner","location":"Gym","dietaryPreference":"Vegetarian","daysPerWeek":3}`

type fakeTextClient struct {
	text string
	err  error
}

func (f *fakeTextClient) GenerateJSON(ctx context.Context, model, system, prompt string) (string, ai.TokenUsage, error) {
	return f.text, ai.TokenUsage{}, f.err
}

type fakeImageClient struct {
	img ai.Image
	err error
}

func (f *fakeImageClient) GenerateImage(ctx context.Context, model, prompt string) (ai.Image, error) {
	return f.img, f.err
}

type fakeTTSClient struct {
	text string
}

func (f *fakeTTSClient) TTS(ctx context.Context, model, voice, text string, w io.Writer) error {
	f.text = text
	_, err := w.Write([]byte("ID3-audio"))
	return err
}

// withFakes installs fake clients and a shared in-memory session store, and runs the test in a temp dir.
func withFakes(t *testing.T) (*fakeTTSClient, *session.Memory) {
	t.Helper()
	origText, origImage, origTTS, origSessions, origServe := newTextClient, newImageClient, newTTSClient, openSessions, runServer
	t.Cleanup(func() {
		newTextClient, newImageClient, newTTSClient, openSessions, runServer = origText, origImage, origTTS, origSessions, origServe
	})

	tts := &fakeTTSClient{}
	store := session.NewMemory()
	newTextClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.TextClient, error) {
		return &fakeTextClient{text: testPlanJSON}, nil
	}
	newImageClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.ImageClient, error) {
		return &fakeImageClient{img: ai.Image{MIMEType: "image/png", Data: []byte("png-bytes")}}, nil
	}
	newTTSClient = func(cfg cfgpkg.Config) (ai.TTSClient, error) { return tts, nil }
	openSessions = func(ctx context.Context, cfg cfgpkg.Config) (session.Store, error) { return store, nil }

	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("FITCOACH_TEXT_PROVIDER", "gemini")
	t.Setenv("FITCOACH_SESSION_BACKEND", "memory")
	if err := os.WriteFile("profile.json", []byte(testProfileJSON), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return tts, store
}

func TestHelp(t *testing.T) {
	if code := run([]string{"-h"}); code != 0 {
		t.Fatalf("expected help to return 0, got %d", code)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	if code := run([]string{"unknown"}); code == 0 {
		t.Fatalf("expected non-zero for unknown subcommand")
	}
}

func TestVersion(t *testing.T) {
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("version returned %d", code)
	}
}

func TestPlanWritesOutputsAndSession(t *testing.T) {
	_, store := withFakes(t)
	if code := run([]string{"plan", "--date=2025-09-30", "--quiet"}); code != 0 {
		t.Fatalf("plan returned non-zero: %d", code)
	}
	planPath := filepath.Join("out", "2025", "09", "30", "plan.json")
	raw, err := os.ReadFile(planPath)
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	if _, err := plan.Parse(string(raw)); err != nil {
		t.Fatalf("written plan invalid: %v", err)
	}
	if _, err := os.Stat(filepath.Join("out", "2025", "09", "30", "profile.json")); err != nil {
		t.Fatalf("profile not written: %v", err)
	}
	st, err := session.Load(context.Background(), store, "cli")
	if err != nil || st.Plan == nil || st.Profile == nil || st.Profile.Name != "Sam" {
		t.Fatalf("session: %+v %v", st, err)
	}

	if code := run([]string{"plan", "--date=2025-09-30", "--quiet"}); code == 0 {
		t.Fatal("expected overwrite guard to fail on second run")
	}
	if code := run([]string{"plan", "--date=2025-09-30", "--quiet", "--overwrite"}); code != 0 {
		t.Fatalf("--overwrite should succeed, got %d", code)
	}
}

func TestPlanRejectsInvalidProfile(t *testing.T) {
	withFakes(t)
	if err := os.WriteFile("bad.json", []byte(`{"name":"S"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if code := run([]string{"plan", "--profile=bad.json", "--quiet"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestPlanProviderFailure(t *testing.T) {
	withFakes(t)
	newTextClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.TextClient, error) {
		return &fakeTextClient{err: errors.New("quota")}, nil
	}
	if code := run([]string{"plan", "--quiet"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestSpeakSection(t *testing.T) {
	tts, _ := withFakes(t)
	if code := run([]string{"plan", "--date=2025-09-30", "--quiet"}); code != 0 {
		t.Fatalf("plan returned %d", code)
	}
	if code := run([]string{"speak", "--date=2025-09-30", "--section=workout"}); code != 0 {
		t.Fatalf("speak returned %d", code)
	}
	if !strings.HasPrefix(tts.text, "Here is your workout plan for Monday. The focus is Full Body.") {
		t.Fatalf("script: %q", tts.text)
	}
	audio, err := os.ReadFile(filepath.Join("out", "2025", "09", "30", "workout.mp3"))
	if err != nil || string(audio) != "ID3-audio" {
		t.Fatalf("audio: %q %v", audio, err)
	}
}

func TestSpeakMissingCredential(t *testing.T) {
	withFakes(t)
	newTTSClient = func(cfg cfgpkg.Config) (ai.TTSClient, error) { return nil, nil }
	if code := run([]string{"speak", "--text=hello"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestSpeakNeedsText(t *testing.T) {
	withFakes(t)
	if code := run([]string{"speak"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestImageWritesPNG(t *testing.T) {
	withFakes(t)
	if code := run([]string{"image", "--date=2025-09-30", "--description=Squat", "--type=workout"}); code != 0 {
		t.Fatalf("image returned %d", code)
	}
	data, err := os.ReadFile(filepath.Join("out", "2025", "09", "30", "workout-squat.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("png: %q %v", data, err)
	}
}

func TestImageFallbackWithoutKey(t *testing.T) {
	withFakes(t)
	newImageClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.ImageClient, error) { return nil, nil }
	if code := run([]string{"image", "--description=Oats", "--type=food"}); code != 0 {
		t.Fatalf("fallback should succeed, got %d", code)
	}
	if code := run([]string{"image", "--description=Oats", "--type=dance"}); code != 1 {
		t.Fatalf("bad type should fail, got %d", code)
	}
}

func TestMotivateFallsBackWithoutClient(t *testing.T) {
	withFakes(t)
	newTextClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.TextClient, error) {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if code := run([]string{"motivate", "--name=Sam", "--goal=Weight Loss"}); code != 0 {
		t.Fatalf("motivate returned %d", code)
	}
}

func TestMotivateWatchCount(t *testing.T) {
	withFakes(t)
	newTextClient = func(ctx context.Context, cfg cfgpkg.Config) (ai.TextClient, error) {
		return &fakeTextClient{text: `{"quote":"Move.","tips":["a","b","c"]}`}, nil
	}
	if code := run([]string{"motivate", "--name=Sam", "--watch", "--count=2", "--interval=10ms"}); code != 0 {
		t.Fatalf("motivate --watch returned %d", code)
	}
}

func TestSessionShowAndClear(t *testing.T) {
	_, store := withFakes(t)
	if code := run([]string{"session", "show"}); code != 1 {
		t.Fatalf("empty session show should fail, got %d", code)
	}
	if code := run([]string{"plan", "--quiet"}); code != 0 {
		t.Fatalf("plan returned %d", code)
	}
	if code := run([]string{"session", "show"}); code != 0 {
		t.Fatalf("session show returned %d", code)
	}
	if code := run([]string{"session", "clear"}); code != 0 {
		t.Fatalf("session clear returned %d", code)
	}
	if _, err := store.Get(context.Background(), "cli", session.SlotPlan); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected cleared session, got %v", err)
	}
	if code := run([]string{"session"}); code != 1 {
		t.Fatalf("session without action should fail, got %d", code)
	}
}

func TestServeWiring(t *testing.T) {
	withFakes(t)
	var gotAddr string
	var gotSrv *server.Server
	runServer = func(ctx context.Context, srv *server.Server, addr string) error {
		gotSrv, gotAddr = srv, addr
		return nil
	}
	if code := run([]string{"serve", "--port=9090"}); code != 0 {
		t.Fatalf("serve returned %d", code)
	}
	if gotSrv == nil || gotAddr != ":9090" {
		t.Fatalf("server not started: %v %q", gotSrv, gotAddr)
	}
}

func TestServeRequiresTextKey(t *testing.T) {
	withFakes(t)
	t.Setenv("GEMINI_API_KEY", "")
	if code := run([]string{"serve"}); code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestRenderPlan(t *testing.T) {
	fp, err := plan.Parse(testPlanJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	up, err := profile.Parse([]byte(testProfileJSON))
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	var buf bytes.Buffer
	renderPlan(&buf, up, fp)
	out := buf.String()
	for _, want := range []string{"Weight Loss", "Monday", "Squat", "Chickpea Curry", "Apple"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}
