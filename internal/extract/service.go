// Package extract implements the per-request pipeline: validate the
// clinical note, build the prompt, call the inference engine, and parse
// the raw completion into a structured diagnosis list.
package extract

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"diagnosisd/internal/engine"
	"diagnosisd/pkg/types"
)

type ctxKey int

const requestIDKey ctxKey = 0

// WithRequestID attaches a transport-assigned request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	// Callers outside the HTTP layer (CLI, tests) get a fresh id so log
	// lines remain correlatable.
	return uuid.NewString()
}

// Config holds the service tunables resolved at startup.
type Config struct {
	Model    string
	UseGPU   bool
	Defaults types.SamplingParams
}

// Service orchestrates the extraction pipeline around a shared engine.
// The engine is the only shared resource; its concurrency discipline is
// its own contract, so Service adds no locking around Generate.
type Service struct {
	eng      engine.Engine
	model    string
	useGPU   bool
	defaults types.SamplingParams
	log      zerolog.Logger
	start    time.Time

	requestsTotal      atomic.Uint64
	validationFailures atomic.Uint64
	engineFailures     atomic.Uint64
	parseFailures      atomic.Uint64
}

// NewService constructs a Service around the injected engine.
func NewService(eng engine.Engine, cfg Config, log zerolog.Logger) *Service {
	defaults := cfg.Defaults
	if defaults == (types.SamplingParams{}) {
		defaults = types.DefaultSamplingParams()
	}
	return &Service{
		eng:      eng,
		model:    cfg.Model,
		useGPU:   cfg.UseGPU,
		defaults: defaults,
		log:      log,
		start:    time.Now(),
	}
}

// Extract runs the full pipeline for one request. Fails fast at the first
// stage error; never returns a partial diagnosis list. The note content is
// never logged, only its length.
func (s *Service) Extract(ctx context.Context, req types.GenerateRequest) (types.DiagnosesResponse, error) {
	s.requestsTotal.Add(1)
	rid := requestID(ctx)

	if err := ValidateRequest(req); err != nil {
		s.validationFailures.Add(1)
		s.log.Warn().Str("request_id", rid).Str("stage", "validate").Err(err).Msg("request rejected")
		return types.DiagnosesResponse{}, err
	}

	prompt, params := BuildPrompt(req, s.defaults)
	s.log.Debug().Str("request_id", rid).Str("stage", "generate").
		Int("note_len", len(req.ClinicalNote)).
		Float64("temperature", params.Temperature).
		Int("max_tokens", params.MaxTokens).
		Msg("calling engine")

	raw, err := s.eng.Generate(ctx, prompt, params)
	if err != nil {
		s.engineFailures.Add(1)
		s.log.Error().Str("request_id", rid).Str("stage", "generate").Err(err).Msg("engine call failed")
		return types.DiagnosesResponse{}, err
	}

	diagnoses, err := ParseDiagnoses(raw)
	if err != nil {
		s.parseFailures.Add(1)
		s.log.Error().Str("request_id", rid).Str("stage", "parse").
			Int("raw_len", len(raw)).Err(err).Msg("unusable model output")
		return types.DiagnosesResponse{}, err
	}

	s.log.Info().Str("request_id", rid).Int("diagnoses", len(diagnoses)).Msg("extraction complete")
	return types.DiagnosesResponse{Diagnoses: diagnoses}, nil
}

// Ready reports whether the engine is reachable.
func (s *Service) Ready(ctx context.Context) bool {
	return s.eng.Ready(ctx)
}

// Status summarizes the service for GET /status.
func (s *Service) Status(ctx context.Context) types.StatusResponse {
	device := "cpu"
	if s.useGPU {
		device = "gpu"
	}
	return types.StatusResponse{
		Model:              s.model,
		Device:             device,
		EngineReady:        s.eng.Ready(ctx),
		RequestsTotal:      s.requestsTotal.Load(),
		ValidationFailures: s.validationFailures.Load(),
		EngineFailures:     s.engineFailures.Load(),
		ParseFailures:      s.parseFailures.Load(),
		UptimeSeconds:      int64(time.Since(s.start).Seconds()),
		ServerTimeUnix:     time.Now().Unix(),
	}
}
