package httpapi

import (
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raysireks/conversationassist/internal/hub"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

func newTestServer(t *testing.T, tr transcribe.Transcriber, cfg RouterConfig) (*httptest.Server, *hub.Hub) {
	t.Helper()
	h := hub.New(discardLogger(), "gpt-4o-mini")
	handler := NewRouter(cfg, discardLogger(), h, tr)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)
	return srv, h
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
}

func dial(t *testing.T, rawURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", rawURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func pcmSilence(seconds float64) []byte {
	n := int(seconds * 16000)
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], 0)
	}
	return out
}

func TestViewerReceivesSnapshotOnJoin(t *testing.T) {
	srv, h := newTestServer(t, &stubTranscriber{}, RouterConfig{})

	h.Broadcast(hub.NewAILog("earlier reply", "assistant"), true)

	conn := dial(t, wsURL(srv, "role=viewer"))
	ev := readEvent(t, conn)

	if ev["type"] != "session_state" {
		t.Fatalf("first event type = %v, want session_state", ev["type"])
	}
	history, ok := ev["history"].([]any)
	if !ok || len(history) != 1 {
		t.Errorf("history = %v, want 1 entry", ev["history"])
	}
}

func TestUnknownRoleClosedWithPolicyViolation(t *testing.T) {
	srv, _ := newTestServer(t, &stubTranscriber{}, RouterConfig{})

	conn := dial(t, wsURL(srv, "role=admin"))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("expected close, got a message")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("close error = %v, want policy violation (1008)", err)
	}
}

func TestListenerAudioReachesViewers(t *testing.T) {
	tr := &stubTranscriber{segments: []transcribe.Segment{
		{Start: 0, End: 0.6, Text: "Hello everyone.", ID: 0},
	}}
	srv, _ := newTestServer(t, tr, RouterConfig{})

	viewer := dial(t, wsURL(srv, "role=viewer"))
	readEvent(t, viewer) // snapshot

	listener := dial(t, wsURL(srv, "role=candidate"))
	readEvent(t, listener) // snapshot

	// 3s of audio, segment ends at 0.6s: 2.4s trailing silence finalizes.
	if err := listener.WriteMessage(websocket.BinaryMessage, pcmSilence(3)); err != nil {
		t.Fatal(err)
	}

	ev := readEvent(t, viewer)
	if ev["type"] != "transcription" {
		t.Fatalf("event type = %v, want transcription", ev["type"])
	}
	if ev["is_final"] != true {
		t.Error("expected a final transcription")
	}
	segs := ev["segments"].([]any)
	if len(segs) != 1 {
		t.Fatalf("segments = %v", segs)
	}
	if segs[0].(map[string]any)["text"] != "Hello everyone." {
		t.Errorf("segment text = %v", segs[0])
	}
}

func TestControlFrameTogglesAI(t *testing.T) {
	srv, h := newTestServer(t, &stubTranscriber{}, RouterConfig{})

	conn := dial(t, wsURL(srv, "role=viewer"))
	readEvent(t, conn) // snapshot

	msg, _ := json.Marshal(map[string]any{"type": "toggle_ai", "enabled": true})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatal(err)
	}

	ev := readEvent(t, conn)
	if ev["type"] != "ai_state" || ev["enabled"] != true {
		t.Errorf("event = %v, want ai_state enabled", ev)
	}
	if !h.AIEnabled() {
		t.Error("hub AI flag not set")
	}
}

func TestViewerBinaryFramesIgnored(t *testing.T) {
	tr := &stubTranscriber{segments: []transcribe.Segment{
		{Start: 0, End: 0.6, Text: "should not appear", ID: 0},
	}}
	srv, _ := newTestServer(t, tr, RouterConfig{})

	viewer := dial(t, wsURL(srv, "role=viewer"))
	readEvent(t, viewer) // snapshot

	if err := viewer.WriteMessage(websocket.BinaryMessage, pcmSilence(3)); err != nil {
		t.Fatal(err)
	}

	_ = viewer.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var ev map[string]any
	if err := viewer.ReadJSON(&ev); err == nil {
		t.Errorf("viewer audio produced an event: %v", ev)
	}
}

func TestDisconnectDeregistersPeer(t *testing.T) {
	srv, h := newTestServer(t, &stubTranscriber{}, RouterConfig{})

	conn := dial(t, wsURL(srv, "role=viewer"))
	readEvent(t, conn)

	waitForPeers(t, h, 1, 0)
	_ = conn.Close()
	waitForPeers(t, h, 0, 0)
}

func waitForPeers(t *testing.T, h *hub.Hub, viewers, listeners int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v, l := h.PeerCount()
		if v == viewers && l == listeners {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	v, l := h.PeerCount()
	t.Fatalf("peers = (%d, %d), want (%d, %d)", v, l, viewers, listeners)
}

func TestRejectedWithoutTokenWhenSecretConfigured(t *testing.T) {
	srv, _ := newTestServer(t, &stubTranscriber{}, RouterConfig{TokenSecret: "s3cret"})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "role=viewer"), nil)
	if err == nil {
		t.Fatal("expected handshake rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %v, want 401", resp)
	}
}
