package extract

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagnosisd/internal/engine"
	"diagnosisd/pkg/types"
)

// Compile-time check to ensure MockEngine implements engine.Engine.
var _ engine.Engine = (*MockEngine)(nil)

// MockEngine is a func-field mock of the inference engine.
type MockEngine struct {
	GenerateFunc func(ctx context.Context, prompt string, params types.SamplingParams) (string, error)
	ReadyFunc    func(ctx context.Context) bool
}

func (m *MockEngine) Generate(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, params)
	}
	return "", engine.ErrUnavailable("GenerateFunc not implemented in mock")
}

func (m *MockEngine) Ready(ctx context.Context) bool {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return true
}

func (m *MockEngine) Close() error { return nil }

func newTestService(eng engine.Engine) *Service {
	return NewService(eng, Config{Model: "test-model", UseGPU: false}, zerolog.Nop())
}

func TestExtractHappyPath(t *testing.T) {
	var gotPrompt string
	var gotParams types.SamplingParams
	eng := &MockEngine{GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
		gotPrompt = prompt
		gotParams = params
		return "pneumonia, type 2 diabetes mellitus", nil
	}}
	svc := newTestService(eng)

	resp, err := svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "fever and cough"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pneumonia", "type 2 diabetes mellitus"}, resp.Diagnoses)
	assert.Contains(t, gotPrompt, "fever and cough")
	assert.Equal(t, types.DefaultSamplingParams(), gotParams)
}

func TestExtractValidationFailureSkipsEngine(t *testing.T) {
	called := false
	eng := &MockEngine{GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
		called = true
		return "pneumonia", nil
	}}
	svc := newTestService(eng)

	_, err := svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "  "})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.False(t, called)
}

func TestExtractEngineOOMNeverPartial(t *testing.T) {
	eng := &MockEngine{GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
		return "", engine.ErrOutOfMemory()
	}}
	svc := newTestService(eng)

	resp, err := svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "note"})
	require.Error(t, err)
	assert.True(t, engine.IsOutOfMemory(err))
	assert.Empty(t, resp.Diagnoses)
}

func TestExtractUnparseableOutputFails(t *testing.T) {
	eng := &MockEngine{GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
		return "   \n ", nil
	}}
	svc := newTestService(eng)

	resp, err := svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "note"})
	require.Error(t, err)
	assert.True(t, IsParse(err))
	assert.Empty(t, resp.Diagnoses)
}

func TestExtractAppliesSamplingOverrides(t *testing.T) {
	var gotParams types.SamplingParams
	eng := &MockEngine{GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
		gotParams = params
		return "sepsis", nil
	}}
	svc := newTestService(eng)

	_, err := svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "note", Temperature: 0.9, TopK: 10})
	require.NoError(t, err)
	assert.Equal(t, 0.9, gotParams.Temperature)
	assert.Equal(t, 10, gotParams.TopK)
	assert.Equal(t, 256, gotParams.MaxTokens)
}

func TestStatusCountsFailuresByStage(t *testing.T) {
	eng := &MockEngine{
		GenerateFunc: func(ctx context.Context, prompt string, params types.SamplingParams) (string, error) {
			return "", engine.ErrGeneration("boom")
		},
		ReadyFunc: func(ctx context.Context) bool { return true },
	}
	svc := newTestService(eng)

	_, _ = svc.Extract(context.Background(), types.GenerateRequest{})                     // validation failure
	_, _ = svc.Extract(context.Background(), types.GenerateRequest{ClinicalNote: "note"}) // engine failure

	st := svc.Status(context.Background())
	assert.Equal(t, uint64(2), st.RequestsTotal)
	assert.Equal(t, uint64(1), st.ValidationFailures)
	assert.Equal(t, uint64(1), st.EngineFailures)
	assert.Equal(t, uint64(0), st.ParseFailures)
	assert.Equal(t, "test-model", st.Model)
	assert.Equal(t, "cpu", st.Device)
	assert.True(t, st.EngineReady)
}

func TestReadyDelegatesToEngine(t *testing.T) {
	eng := &MockEngine{ReadyFunc: func(ctx context.Context) bool { return false }}
	svc := newTestService(eng)
	assert.False(t, svc.Ready(context.Background()))
}
