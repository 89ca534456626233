package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/raysireks/conversationassist/internal/assistant"
	"github.com/raysireks/conversationassist/internal/embed"
	"github.com/raysireks/conversationassist/internal/httpapi"
	"github.com/raysireks/conversationassist/internal/hub"
	"github.com/raysireks/conversationassist/internal/segment"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

type App struct {
	cfg         Config
	logger      *log.Logger
	hub         *hub.Hub
	transcriber *transcribe.WhisperClient
	httpClient  *http.Client // Shared HTTP client with connection pooling for provider calls
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	// Shared HTTP client with connection pooling. Transcription runs every
	// worker tick, so keeping TCP connections alive matters for latency.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	transcriber := transcribe.NewWhisperClient(transcribe.WhisperConfig{
		BaseURL:    cfg.WhisperURL,
		Model:      cfg.WhisperModel,
		HTTPClient: httpClient,
	})

	// Probe the transcription backend once at startup so a misconfigured
	// URL shows up in the logs immediately instead of on the first request.
	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if st, err := transcriber.Status(probeCtx); err != nil {
		logger.Printf("app: whisper backend unavailable at startup: %v", err)
	} else {
		logger.Printf("app: whisper backend ready, model=%s device=%s", st.Model, st.Device)
	}

	h := hub.New(logger, cfg.AIModel)

	// The segmenter and assistant need an OpenAI key; without one the
	// session still runs, just without thought grouping or AI replies.
	if cfg.OpenAIAPIKey != "" {
		embedder := embed.NewOpenAIEmbedder(embed.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.EmbedModel,
			HTTPClient: httpClient,
		})
		h.SetSegmenter(segment.New(embedder, logger))

		client := assistant.NewOpenAIClient(assistant.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			HTTPClient: httpClient,
		})
		h.SetAssistant(assistant.NewBridge(h, client, logger))
	} else {
		logger.Printf("app: OPENAI_API_KEY not set, thought segmentation and assistant disabled")
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		hub:         h,
		transcriber: transcriber,
		httpClient:  httpClient,
	}, nil
}

func (a *App) Router() http.Handler {
	return httpapi.NewRouter(httpapi.RouterConfig{
		WhisperModel:     a.cfg.WhisperModel,
		OpenAIConfigured: a.cfg.OpenAIAPIKey != "",
		TokenSecret:      a.cfg.SessionTokenSecret,
	}, a.logger, a.hub, a.transcriber)
}

func (a *App) Close() error {
	a.hub.Close()
	return nil
}
