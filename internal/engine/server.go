package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"diagnosisd/pkg/types"
)

// serverEngine implements Engine by talking to a running inference server
// (vLLM or any OpenAI-compatible backend) over HTTP.
type serverEngine struct {
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

// ServerConfig configures a server-backed engine.
type ServerConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	ReqTimeout     time.Duration
	ConnectTimeout time.Duration
}

// NewServerEngine constructs a server-backed engine adapter.
func NewServerEngine(cfg ServerConfig) Engine {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Intentionally set Timeout=0 here: all requests must carry context-based
	// timeouts. Generate() applies reqTimeout via context, and individual
	// calls use http.NewRequestWithContext to enforce deadlines.
	cli := &http.Client{Transport: tr, Timeout: 0}
	return &serverEngine{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		reqTimeout: cfg.ReqTimeout,
		httpClient: cli,
	}
}

// completionRequest represents the payload for /v1/completions.
type completionRequest struct {
	Model            string  `json:"model,omitempty"`
	Prompt           string  `json:"prompt"`
	MaxTokens        int     `json:"max_tokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"top_p,omitempty"`
	TopK             int     `json:"top_k,omitempty"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	Stream           bool    `json:"stream"`
}

type completionChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
}

func (e *serverEngine) Generate(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
	if e.httpClient == nil {
		return "", ErrUnavailable("engine adapter not initialized")
	}
	if e.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.reqTimeout)
		defer cancel()
	}

	payload := completionRequest{
		Model:            e.model,
		Prompt:           prompt,
		MaxTokens:        params.MaxTokens,
		Temperature:      params.Temperature,
		TopP:             params.TopP,
		TopK:             params.TopK,
		FrequencyPenalty: params.FrequencyPenalty,
		Stream:           false,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		// Translate context timeouts/cancels before classifying transport errors.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrUnavailable("engine unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isOOMResponse(resp.StatusCode, string(b)) {
			return "", ErrOutOfMemory()
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			return "", ErrUnavailable("engine not serving: " + resp.Status)
		}
		return "", ErrGeneration("engine http error: " + resp.Status)
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ErrGeneration("engine returned malformed response body")
	}
	if len(out.Choices) == 0 {
		return "", ErrGeneration("engine returned no completion choices")
	}
	return out.Choices[0].Text, nil
}

// isOOMResponse recognizes device memory exhaustion in engine error bodies.
// vLLM reports CUDA OOM as a 500 with the message in the body.
func isOOMResponse(status int, body string) bool {
	if status != http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		return false
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "out of memory") || strings.Contains(lower, "outofmemory")
}

func (e *serverEngine) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (e *serverEngine) Close() error { return nil }
