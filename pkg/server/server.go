// Package server exposes the audio analysis pipeline over an HTTP JSON API
// and a WebSocket stream for continuous monitoring.
//
// Audio arrives base64-encoded as 16-bit signed little-endian PCM, mono.
// Input errors are rejected with 400 and a JSON error body. Scoring
// degradation never surfaces through the transport; the engine returns
// neutral defaults in that case.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxguard/voxguard/pkg/audio/pcm"
	"github.com/voxguard/voxguard/pkg/audio/preprocess"
	"github.com/voxguard/voxguard/pkg/enroll"
	"github.com/voxguard/voxguard/pkg/risk"
	"github.com/voxguard/voxguard/pkg/session"
)

// DefaultSampleRate is assumed when a request omits sample_rate.
const DefaultSampleRate = 16000

// Server wires the risk engine, session store and enrollment store behind
// HTTP handlers. It implements http.Handler.
type Server struct {
	engine      *risk.Engine
	sessions    *session.Store
	enrollments *enroll.Store
	pre         *preprocess.Preprocessor
	targetRate  int
	mux         *http.ServeMux
	upgrader    websocket.Upgrader
}

// New creates a Server over the given stores and engine.
func New(engine *risk.Engine, sessions *session.Store, enrollments *enroll.Store) *Server {
	preCfg := preprocess.DefaultConfig()
	s := &Server{
		engine:      engine,
		sessions:    sessions,
		enrollments: enrollments,
		pre:         preprocess.New(preCfg),
		targetRate:  preCfg.TargetRate,
		mux:         http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 16 << 10,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/audio/validate", s.handleValidate)
	s.mux.HandleFunc("POST /api/audio/enroll", s.handleEnroll)
	s.mux.HandleFunc("POST /api/audio/verify", s.handleVerify)
	s.mux.HandleFunc("POST /api/session/start", s.handleSessionStart)
	s.mux.HandleFunc("GET /api/session/{id}/status", s.handleSessionStatus)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

type validateRequest struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate"`
	SessionID  string `json:"session_id"`
}

type validateResponse struct {
	SessionID       string   `json:"session_id,omitempty"`
	QualityScore    float64  `json:"quality_score"`
	SpoofScore      float64  `json:"spoof_score"`
	RiskLevel       string   `json:"risk_level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	samples, err := s.decodeChunk(req.Audio, req.SampleRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment := s.engine.Assess(samples, s.targetRate)
	if req.SessionID != "" {
		err := s.sessions.RecordChunk(r.Context(), req.SessionID,
			assessment.QualityScore, assessment.SpoofScore, string(assessment.Level))
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown session_id")
			return
		}
		if err != nil {
			slog.Error("session record failed", "session_id", req.SessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "session store unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, validateResponse{
		SessionID:       req.SessionID,
		QualityScore:    assessment.QualityScore,
		SpoofScore:      assessment.SpoofScore,
		RiskLevel:       string(assessment.Level),
		Factors:         assessment.Factors,
		Recommendations: risk.Recommendations(assessment),
	})
}

type enrollRequest struct {
	Audio      string `json:"audio"`
	UserID     string `json:"user_id"`
	SampleRate int    `json:"sample_rate"`
}

type enrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	samples, rate, err := decodeRaw(req.Audio, req.SampleRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.enrollments.Enroll(r.Context(), req.UserID, samples, rate) {
		writeJSON(w, http.StatusOK, enrollResponse{Success: true, Message: "speaker enrolled"})
		return
	}
	writeJSON(w, http.StatusOK, enrollResponse{Success: false, Message: "enrollment failed"})
}

type verifyRequest struct {
	Audio      string  `json:"audio"`
	UserID     string  `json:"user_id"`
	SampleRate int     `json:"sample_rate"`
	Threshold  float64 `json:"threshold"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	samples, rate, err := decodeRaw(req.Audio, req.SampleRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.enrollments.VerifyWithThreshold(r.Context(), req.UserID, samples, rate, req.Threshold)
	writeJSON(w, http.StatusOK, res)
}

type sessionStartRequest struct {
	UserID string `json:"user_id"`
}

type sessionStartResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req sessionStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	id, err := s.sessions.Create(r.Context(), req.UserID)
	if err != nil {
		slog.Error("session create failed", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, sessionStartResponse{SessionID: id, Status: "active"})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.sessions.Status(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if err != nil {
		slog.Error("session status failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeChunk decodes base64 PCM16 audio and preprocesses it to canonical
// form for scoring.
func (s *Server) decodeChunk(audio string, sampleRate int) ([]float64, error) {
	raw, rate, err := decodeRaw(audio, sampleRate)
	if err != nil {
		return nil, err
	}
	return s.pre.Process(raw, rate)
}

// decodeRaw decodes base64 PCM16 audio without preprocessing and resolves
// the effective sample rate.
func decodeRaw(audio string, sampleRate int) ([]float64, int, error) {
	if audio == "" {
		return nil, 0, errors.New("audio required")
	}
	data, err := base64.StdEncoding.DecodeString(audio)
	if err != nil {
		return nil, 0, fmt.Errorf("audio is not valid base64: %w", err)
	}
	samples, err := pcm.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if format, ok := pcm.FormatForRate(sampleRate); ok {
		slog.Debug("chunk decoded",
			"samples", len(samples), "duration", format.Duration(int64(len(data))))
	}
	return samples, sampleRate, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
