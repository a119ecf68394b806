package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxguard/voxguard/pkg/session"
)

// streamFrame is one audio chunk sent by a monitoring client.
type streamFrame struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate"`
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
}

// streamResult is the per-chunk reply.
type streamResult struct {
	QualityScore float64  `json:"quality_score"`
	SpoofScore   float64  `json:"spoof_score"`
	RiskLevel    string   `json:"risk_level"`
	Factors      []string `json:"factors"`
	Timestamp    string   `json:"timestamp"`
}

type streamError struct {
	Error string `json:"error"`
}

// handleStream upgrades to a WebSocket and scores each incoming frame.
// Malformed frames get an error message; the socket stays open until the
// client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Info("stream connected", "remote", conn.RemoteAddr())

	for {
		var frame streamFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("stream read failed", "remote", conn.RemoteAddr(), "error", err)
			}
			return
		}

		res, err := s.scoreFrame(r, frame)
		if err != nil {
			if werr := conn.WriteJSON(streamError{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(res); err != nil {
			return
		}
	}
}

func (s *Server) scoreFrame(r *http.Request, frame streamFrame) (*streamResult, error) {
	samples, err := s.decodeChunk(frame.Audio, frame.SampleRate)
	if err != nil {
		return nil, err
	}
	assessment := s.engine.Assess(samples, s.targetRate)

	if frame.SessionID != "" {
		err := s.sessions.RecordChunk(r.Context(), frame.SessionID,
			assessment.QualityScore, assessment.SpoofScore, string(assessment.Level))
		if errors.Is(err, session.ErrNotFound) {
			return nil, errors.New("unknown session_id")
		}
		if err != nil {
			slog.Error("session record failed", "session_id", frame.SessionID, "error", err)
		}
	}

	ts := frame.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	return &streamResult{
		QualityScore: assessment.QualityScore,
		SpoofScore:   assessment.SpoofScore,
		RiskLevel:    string(assessment.Level),
		Factors:      assessment.Factors,
		Timestamp:    ts,
	}, nil
}
