package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fitcoach/internal/imagegen"
	"fitcoach/internal/motivation"
	"fitcoach/internal/plan"
	"fitcoach/internal/profile"
	"fitcoach/internal/session"
	"fitcoach/internal/speech"
)

type errorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type planResponse struct {
	plan.Result
	SessionID string `json:"sessionId,omitempty"`
}

type motivationRequest struct {
	Name string `json:"name"`
	Goal string `json:"goal"`
}

type imageRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

type speechRequest struct {
	Text    string `json:"text"`
	Section string `json:"section"`
}

type sessionResponse struct {
	Success   bool          `json:"success"`
	SessionID string        `json:"sessionId"`
	Data      session.State `json:"data"`
}

func newSessionID() string { return uuid.NewString() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// resultStatus maps an operation envelope onto an HTTP status.
func resultStatus(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	up, err := profile.Parse(body)
	if err != nil {
		var verr profile.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid profile", Fields: verr.Fields()})
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := s.deps.Plans.Generate(r.Context(), up)
	if !res.Success {
		writeJSON(w, resultStatus(false), planResponse{Result: res})
		return
	}

	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = s.newID()
	}
	if s.deps.Sessions != nil {
		if err := session.Save(r.Context(), s.deps.Sessions, id, *res.Data, up); err != nil {
			slog.Warn("session save failed", "session", id, "err", err)
			id = ""
		}
	}
	if id != "" {
		w.Header().Set(SessionHeader, id)
	}
	writeJSON(w, http.StatusOK, planResponse{Result: res, SessionID: id})
}

func (s *Server) handleMotivation(w http.ResponseWriter, r *http.Request) {
	var req motivationRequest
	if err := decodeBody(w, r, &req); err != nil {
		slog.Warn("motivation request ignored", "err", err)
	}
	writeJSON(w, http.StatusOK, s.deps.Motivation.Generate(r.Context(), req.Name, req.Goal))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kind, err := imagegen.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	res := s.deps.Images.Generate(r.Context(), req.Description, kind)
	writeJSON(w, resultStatus(res.Success), res)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := req.Text
	if section := strings.ToLower(strings.TrimSpace(req.Section)); section != "" {
		st, status, msg := s.loadSession(r)
		if msg != "" {
			writeError(w, status, msg)
			return
		}
		if st.Plan == nil {
			writeError(w, http.StatusNotFound, "No plan in session")
			return
		}
		switch section {
		case "workout":
			text = speech.WorkoutScript(st.Plan.WorkoutPlan)
		case "diet":
			text = speech.DietScript(&st.Plan.DietPlan)
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown section %q", req.Section))
			return
		}
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res := s.deps.Speech.Synthesize(r.Context(), text)
	writeJSON(w, resultStatus(res.Success), res)
}

// loadSession returns a non-empty msg when the request cannot be served.
func (s *Server) loadSession(r *http.Request) (session.State, int, string) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return session.State{}, http.StatusBadRequest, SessionHeader + " header is required"
	}
	if s.deps.Sessions == nil {
		return session.State{}, http.StatusNotFound, "Session not found"
	}
	st, err := session.Load(r.Context(), s.deps.Sessions, id)
	if errors.Is(err, session.ErrInvalidID) {
		return session.State{}, http.StatusBadRequest, err.Error()
	}
	if err != nil {
		slog.Error("session load failed", "session", id, "err", err)
		return session.State{}, http.StatusInternalServerError, "Failed to load session"
	}
	return st, 0, ""
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	st, status, msg := s.loadSession(r)
	if msg != "" {
		writeError(w, status, msg)
		return
	}
	if st.Plan == nil && st.Profile == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, SessionID: id, Data: st})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		writeError(w, http.StatusBadRequest, SessionHeader+" header is required")
		return
	}
	if s.deps.Sessions != nil {
		err := s.deps.Sessions.Clear(r.Context(), id)
		if errors.Is(err, session.ErrInvalidID) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			slog.Error("session clear failed", "session", id, "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to clear session")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleMotivationStream pushes a motivation event immediately and then every interval
// until the client goes away.
func (s *Server) handleMotivationStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	name := r.URL.Query().Get("name")
	goal := r.URL.Query().Get("goal")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		slog.Error("motivation stream unsupported", "err", err)
		return
	}

	var latest motivation.Latest
	ready := make(chan struct{}, 1)
	sink := func(res motivation.Result) {
		latest.Set(res)
		select {
		case ready <- struct{}{}:
		default:
		}
	}
	ctx := r.Context()
	ticker := motivation.NewTicker(s.deps.Motivation, name, goal, s.deps.MotivationInterval, sink)
	ticker.Start(ctx)
	defer func() {
		ticker.Stop()
		ticker.Wait()
	}()

	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ready:
			res, seq := latest.Get()
			if seq == sent {
				continue
			}
			sent = seq
			payload, err := json.Marshal(res)
			if err != nil {
				slog.Error("encode motivation event", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: motivation\ndata: %s\n\n", payload); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
