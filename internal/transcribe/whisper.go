package transcribe

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// WhisperClient implements Transcriber against a whisper-server style HTTP
// endpoint: raw PCM in, timed JSON segments out.
type WhisperClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// WhisperConfig holds configuration for the whisper-server client.
type WhisperConfig struct {
	BaseURL    string // e.g., "http://localhost:9000"
	Model      string // e.g., "base", "small", "large-v3"
	HTTPClient *http.Client
}

// NewWhisperClient creates a new whisper-server client.
func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	model := cfg.Model
	if model == "" {
		model = "base"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &WhisperClient{
		baseURL:    cfg.BaseURL,
		model:      model,
		httpClient: httpClient,
	}
}

// Model returns the configured model name.
func (c *WhisperClient) Model() string {
	return c.model
}

// transcribeResponse is the whisper-server response shape.
type transcribeResponse struct {
	Segments []Segment `json:"segments"`
}

type statusResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
	Device string `json:"device"`
}

// Transcribe sends the sample window as 16-bit PCM and decodes the timed
// segments from the response.
func (c *WhisperClient) Transcribe(ctx context.Context, samples []float32) ([]Segment, error) {
	endpoint := fmt.Sprintf("%s/v1/transcribe?model=%s&sample_rate=16000", c.baseURL, url.QueryEscape(c.model))

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(encodePCM16(samples)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisper server error: %s - %s", resp.Status, string(respBody))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Segments, nil
}

// Status probes the server's health endpoint for model and device info.
func (c *WhisperClient) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/status", nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("whisper server status: %s", resp.Status)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Status{}, fmt.Errorf("failed to decode response: %w", err)
	}

	device := out.Device
	if device == "" {
		device = "remote"
	}
	model := out.Model
	if model == "" {
		model = c.model
	}
	return Status{Model: model, Device: device}, nil
}

// encodePCM16 converts normalized samples back to little-endian signed
// 16-bit PCM for the wire.
func encodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s*32767)))
	}
	return out
}
