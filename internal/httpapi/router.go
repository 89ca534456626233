package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/raysireks/conversationassist/internal/hub"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

type RouterConfig struct {
	// Transcriber settings (the model name backs the status page when the
	// server probe fails)
	WhisperModel string

	// Assistant availability, reported on the status page
	OpenAIConfigured bool

	// Session access tokens; empty disables token checks
	TokenSecret string
}

type Router struct {
	cfg         RouterConfig
	logger      *log.Logger
	hub         *hub.Hub
	transcriber transcribe.Transcriber
	mux         *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, h *hub.Hub, t transcribe.Transcriber) http.Handler {
	r := &Router{
		cfg:         cfg,
		logger:      logger,
		hub:         h,
		transcriber: t,
		mux:         http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /{$}", r.handleStatus)
	r.mux.HandleFunc("GET /ws", r.handleSessionWS)
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusReply mirrors the transcription backend's status surface: model
// and device availability plus whether an assistant provider is
// configured.
type statusReply struct {
	Status      string `json:"status"`
	Model       string `json:"model"`
	Device      string `json:"device"`
	AIAvailable bool   `json:"ai_available"`
}

func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) {
	reply := statusReply{
		Status:      "online",
		Model:       r.cfg.WhisperModel,
		AIAvailable: r.cfg.OpenAIConfigured,
	}

	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	st, err := r.transcriber.Status(ctx)
	if err != nil {
		r.logger.Printf("status: transcriber probe failed: %v", err)
		reply.Status = "degraded"
		reply.Device = "unavailable"
	} else {
		reply.Model = st.Model
		reply.Device = st.Device
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		captureError(req, err, "status: encode failed")
	}
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h := sentry.CurrentHub().Clone()
				h.Scope().SetRequest(req)
				h.RecoverWithContext(req.Context(), err)
				h.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
