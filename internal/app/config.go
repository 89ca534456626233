package app

import "os"

type Config struct {
	HTTPAddr string
	LogLevel string

	// Transcription backend
	WhisperURL   string
	WhisperModel string

	// Assistant / embeddings provider
	OpenAIAPIKey string
	AIModel      string
	EmbedModel   string

	// Session access tokens; empty disables the check
	SessionTokenSecret string

	// Error monitoring
	SentryDSN string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8000"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		// Transcription backend
		WhisperURL:   getenv("WHISPER_URL", "http://localhost:9000"),
		WhisperModel: getenv("WHISPER_MODEL", "base"),

		// Assistant / embeddings provider
		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		AIModel:      getenv("AI_MODEL", "gpt-4o-mini"),
		EmbedModel:   getenv("EMBED_MODEL", "text-embedding-3-small"),

		// Session access tokens
		SessionTokenSecret: os.Getenv("SESSION_TOKEN_SECRET"),

		// Error monitoring
		SentryDSN: getenv("SENTRY_DSN", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
