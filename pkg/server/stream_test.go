package server_test

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialStream(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamScoresFrames(t *testing.T) {
	ts := newTestServer(t)
	conn := dialStream(t, ts.URL)

	frame := map[string]any{
		"audio":     chunkB64(1),
		"timestamp": "2026-09-01T10:00:00Z",
	}
	if err := conn.WriteJSON(frame); err != nil {
		t.Fatal(err)
	}
	var res map[string]any
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatal(err)
	}
	if _, ok := res["risk_level"].(string); !ok {
		t.Errorf("missing risk_level in %v", res)
	}
	if res["timestamp"] != "2026-09-01T10:00:00Z" {
		t.Errorf("timestamp = %v, want echoed", res["timestamp"])
	}
}

func TestStreamMalformedFrameKeepsSocketOpen(t *testing.T) {
	ts := newTestServer(t)
	conn := dialStream(t, ts.URL)

	if err := conn.WriteJSON(map[string]any{"audio": "not base64"}); err != nil {
		t.Fatal(err)
	}
	var res map[string]any
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatal(err)
	}
	if res["error"] == nil || res["error"] == "" {
		t.Fatalf("expected error reply, got %v", res)
	}

	// The socket must survive a bad frame.
	if err := conn.WriteJSON(map[string]any{"audio": chunkB64(1)}); err != nil {
		t.Fatal(err)
	}
	res = map[string]any{}
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatalf("socket closed after malformed frame: %v", err)
	}
	if _, ok := res["risk_level"].(string); !ok {
		t.Errorf("missing risk_level in %v", res)
	}
}

func TestStreamRecordsIntoSession(t *testing.T) {
	ts := newTestServer(t)

	_, body := postJSON(t, ts.URL+"/api/session/start", map[string]any{"user_id": "bob"})
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("missing session_id: %v", body)
	}

	conn := dialStream(t, ts.URL)
	if err := conn.WriteJSON(map[string]any{
		"audio":      chunkB64(1),
		"session_id": sessionID,
	}); err != nil {
		t.Fatal(err)
	}
	var res map[string]any
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatal(err)
	}
	if res["error"] != nil {
		t.Fatalf("unexpected error: %v", res)
	}

	resp, st := getJSON(t, ts.URL+"/api/session/"+sessionID+"/status")
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if st["chunks_processed"] != 1.0 {
		t.Errorf("chunks_processed = %v, want 1", st["chunks_processed"])
	}
}
