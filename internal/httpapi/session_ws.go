package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raysireks/conversationassist/internal/audio"
	"github.com/raysireks/conversationassist/internal/hub"
	"github.com/raysireks/conversationassist/internal/ingest"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// peerSendTimeout bounds one write to a peer. Broadcast delivery runs
// inside the hub's critical section, so a stuck peer must fail fast and
// get evicted rather than stall the session.
const peerSendTimeout = 5 * time.Second

// wsPeer adapts a websocket connection to hub.Peer. The write mutex
// serializes hub broadcasts with close frames.
type wsPeer struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{id: uuid.NewString(), conn: conn}
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Send(ev hub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(peerSendTimeout))
	return p.conn.WriteJSON(ev)
}

func (p *wsPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
	return p.conn.Close()
}

// controlMessage is the closed set of client commands. Anything else that
// parses as a JSON object is relayed verbatim.
type controlMessage struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
	Model   string `json:"model"`
}

func (r *Router) handleSessionWS(w http.ResponseWriter, req *http.Request) {
	role, roleErr := ParseRole(req.URL.Query().Get("role"))

	if r.cfg.TokenSecret != "" {
		if err := verifySessionToken(r.cfg.TokenSecret, req.URL.Query().Get("token")); err != nil {
			r.logger.Printf("session_ws: rejected join: %v", err)
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("session_ws: upgrade failed: %v", err)
		return
	}

	if roleErr != nil {
		r.logger.Printf("session_ws: %v", roleErr)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown role"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	peer := newWSPeer(conn)
	r.logger.Printf("session_ws: %s %s connected", role, peer.ID())

	var worker *ingest.Worker
	if role == RoleListener {
		worker = ingest.NewWorker(r.transcriber, r.hub, r.logger)
		worker.Start()
		err = r.hub.AddListener(peer)
	} else {
		err = r.hub.AddViewer(peer)
	}
	if err != nil {
		r.logger.Printf("session_ws: snapshot send failed for %s: %v", peer.ID(), err)
		if worker != nil {
			worker.Stop()
		}
		_ = conn.Close()
		return
	}

	defer func() {
		// Stop is synchronous: after it returns the worker emits nothing,
		// so deregistration and teardown cannot race a late broadcast.
		if worker != nil {
			worker.Stop()
		}
		if role == RoleListener {
			r.hub.RemoveListener(peer.ID())
		} else {
			r.hub.RemoveViewer(peer.ID())
		}
		_ = conn.Close()
		r.logger.Printf("session_ws: %s %s disconnected", role, peer.ID())
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logger.Printf("session_ws: read error for %s: %v", peer.ID(), err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if worker == nil {
				continue // viewers have no audio path
			}
			worker.Enqueue(audio.DecodePCM16(msg))

		case websocket.TextMessage:
			r.handleControl(msg)
		}
	}
}

// handleControl dispatches one client text frame. Malformed JSON is
// silently dropped; unrecognized object shapes are relayed to all peers.
func (r *Router) handleControl(msg []byte) {
	var ctl controlMessage
	if err := json.Unmarshal(msg, &ctl); err == nil {
		switch ctl.Type {
		case "toggle_ai":
			r.hub.ToggleAI(ctl.Enabled)
			return
		case "change_model":
			r.hub.ChangeModel(ctl.Model)
			return
		case "force_segment":
			r.hub.HandleForceSegment()
			return
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(msg, &payload); err != nil {
		return
	}
	r.hub.HandleRelay(payload)
}
