package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fitcoach/internal/imagegen"
	"fitcoach/internal/motivation"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
	"fitcoach/internal/session"
	"fitcoach/internal/speech"
)

type fakePlans struct {
	res   plan.Result
	calls int
	got   profile.UserProfile
}

func (f *fakePlans) Generate(ctx context.Context, p profile.UserProfile) plan.Result {
	f.calls++
	f.got = p
	return f.res
}

type fakeMotivation struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeMotivation) Generate(ctx context.Context, name, goal string) motivation.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return motivation.Result{Success: true, Data: motivation.Motivation{Quote: "Go " + name, Tips: []string{"a", "b", "c"}}}
}

type fakeImages struct {
	res  imagegen.Result
	kind imagegen.Kind
}

func (f *fakeImages) Generate(ctx context.Context, description string, kind imagegen.Kind) imagegen.Result {
	f.kind = kind
	return f.res
}

type fakeSpeech struct {
	res  speech.Result
	text string
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) speech.Result {
	f.text = text
	return f.res
}

var testPlan = plan.FitnessPlan{
	WorkoutPlan: []plan.WorkoutDay{{Day: "Monday", Focus: "Legs", Exercises: []plan.Exercise{{Name: "Squat", Sets: 3, Reps: "10"}}}},
	DietPlan:    plan.DietPlan{Breakfast: plan.Meal{Name: "Oats"}, Lunch: plan.Meal{Name: "Salad"}, Dinner: plan.Meal{Name: "Curry"}, Snacks: []plan.Meal{}},
}

const samJSON = `{"name":"Sam","age":"30","gender":"Male","height":180,"weight":80,"goal":"Weight Loss","level":"Beginner","location":"Gym","dietaryPreference":"Vegetarian","daysPerWeek":3}`

type harness struct {
	srv      *Server
	plans    *fakePlans
	motiv    *fakeMotivation
	images   *fakeImages
	speech   *fakeSpeech
	sessions *session.Memory
}

func newHarness() *harness {
	p := testPlan
	h := &harness{
		plans:    &fakePlans{res: plan.Result{Success: true, Data: &p}},
		motiv:    &fakeMotivation{},
		images:   &fakeImages{res: imagegen.Result{Success: true, Image: "data:image/png;base64,AAAA"}},
		speech:   &fakeSpeech{res: speech.Result{Success: true, Audio: "data:audio/mp3;base64,AAAA"}},
		sessions: session.NewMemory(),
	}
	h.srv = New(Deps{
		Plans:              h.plans,
		Motivation:         h.motiv,
		Images:             h.images,
		Speech:             h.speech,
		Sessions:           h.sessions,
		MotivationInterval: 20 * time.Millisecond,
	})
	h.srv.newID = func() string { return "sess-1" }
	return h
}

func (h *harness) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := newHarness().do(http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
}

func TestPlanSuccessStoresSession(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/api/plan", samJSON, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(SessionHeader) != "sess-1" {
		t.Fatalf("session header: %q", rec.Header().Get(SessionHeader))
	}
	body := decode(t, rec)
	if body["success"] != true || body["sessionId"] != "sess-1" || body["data"] == nil {
		t.Fatalf("body: %v", body)
	}
	if h.plans.got.Age != 30 || h.plans.got.Name != "Sam" {
		t.Fatalf("profile not coerced: %+v", h.plans.got)
	}
	st, err := session.Load(context.Background(), h.sessions, "sess-1")
	if err != nil || st.Plan == nil || st.Profile == nil {
		t.Fatalf("session not stored: %+v %v", st, err)
	}
}

func TestPlanReusesSessionHeader(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/api/plan", samJSON, map[string]string{SessionHeader: "mine"})
	if rec.Header().Get(SessionHeader) != "mine" {
		t.Fatalf("session header: %q", rec.Header().Get(SessionHeader))
	}
}

func TestPlanValidationError(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/api/plan", `{"name":"S","age":5}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["name"] == nil || fields["age"] == nil {
		t.Fatalf("fields: %v", body)
	}
	if h.plans.calls != 0 {
		t.Fatal("generator must not be called for invalid input")
	}
}

func TestPlanFailure(t *testing.T) {
	h := newHarness()
	h.plans.res = plan.Result{Error: plan.ErrGenerate}
	rec := h.do(http.MethodPost, "/api/plan", samJSON, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false || body["error"] != "Failed to generate plan" {
		t.Fatalf("body: %v", body)
	}
	if _, err := h.sessions.Get(context.Background(), "sess-1", session.SlotPlan); err == nil {
		t.Fatal("failed plan must not be stored")
	}
}

func TestMotivation(t *testing.T) {
	rec := newHarness().do(http.MethodPost, "/api/motivation", `{"name":"Sam","goal":"Weight Loss"}`, nil)
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("motivation: %d %v", rec.Code, body)
	}
}

func TestImage(t *testing.T) {
	h := newHarness()
	rec := h.do(http.MethodPost, "/api/image", `{"description":"Squat","type":"workout"}`, nil)
	if rec.Code != http.StatusOK || h.images.kind != imagegen.KindWorkout {
		t.Fatalf("image: %d %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodPost, "/api/image", `{"description":"Squat","type":"dance"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type: %d", rec.Code)
	}
}

func TestSpeechSectionUsesStoredPlan(t *testing.T) {
	h := newHarness()
	if err := session.Save(context.Background(), h.sessions, "abc", testPlan, profile.UserProfile{Name: "Sam"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec := h.do(http.MethodPost, "/api/speech", `{"section":"diet"}`, map[string]string{SessionHeader: "abc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(h.speech.text, "Here is your nutrition plan. For Breakfast, have Oats.") {
		t.Fatalf("script: %q", h.speech.text)
	}

	rec = h.do(http.MethodPost, "/api/speech", `{"section":"workout"}`, map[string]string{SessionHeader: "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing plan: %d", rec.Code)
	}
	rec = h.do(http.MethodPost, "/api/speech", `{"section":"workout"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing header: %d", rec.Code)
	}
}

func TestSpeechFailure(t *testing.T) {
	h := newHarness()
	h.speech.res = speech.Result{Error: speech.ErrGenerate}
	rec := h.do(http.MethodPost, "/api/speech", `{"text":"hello"}`, nil)
	body := decode(t, rec)
	if rec.Code != http.StatusBadGateway || body["error"] != "Failed to generate speech" {
		t.Fatalf("speech failure: %d %v", rec.Code, body)
	}
}

func TestSessionRestoreAndReset(t *testing.T) {
	h := newHarness()
	hdr := map[string]string{SessionHeader: "abc"}
	if rec := h.do(http.MethodGet, "/api/session", "", hdr); rec.Code != http.StatusNotFound {
		t.Fatalf("empty session: %d", rec.Code)
	}
	_ = session.Save(context.Background(), h.sessions, "abc", testPlan, profile.UserProfile{Name: "Sam"})
	rec := h.do(http.MethodGet, "/api/session", "", hdr)
	body := decode(t, rec)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("restore: %d %v", rec.Code, body)
	}
	if rec := h.do(http.MethodDelete, "/api/session", "", hdr); rec.Code != http.StatusOK {
		t.Fatalf("reset: %d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/session", "", hdr); rec.Code != http.StatusNotFound {
		t.Fatalf("after reset: %d", rec.Code)
	}
}

func TestSessionResetRejectsBadID(t *testing.T) {
	h := newHarness()
	hdr := map[string]string{SessionHeader: "a/b"}
	for _, method := range []string{http.MethodDelete, http.MethodGet} {
		if rec := h.do(method, "/api/session", "", hdr); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s bad id: %d", method, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness()
	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers: %v", rec.Header())
	}
}

func TestMotivationStream(t *testing.T) {
	h := newHarness()
	ts := httptest.NewServer(h.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/motivation/stream?name=Sam&goal=Weight+Loss", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	events := 0
	for sc.Scan() && events < 2 {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var res motivation.Result
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &res); err != nil {
			t.Fatalf("event: %v", err)
		}
		if res.Data.Quote != "Go Sam" {
			t.Fatalf("quote: %q", res.Data.Quote)
		}
		events++
	}
	if events < 2 {
		t.Fatalf("expected repeated events, got %d", events)
	}
}
