package types

// SamplingParams captures the decoding parameters passed to the engine.
// The defaults below are estimates carried over from earlier experiments;
// they have not been tuned on a labeled dataset.
type SamplingParams struct {
	// Temperature in [0,1]; lower is more deterministic.
	Temperature float64
	// TopP in [0,1]; nucleus sampling probability mass.
	TopP float64
	// TopK limits candidates to the top K tokens. Applied before TopP.
	TopK int
	// MaxTokens bounds the number of generated tokens. Diagnosis lists
	// are short, so this is well under typical completion budgets.
	MaxTokens int
	// FrequencyPenalty in [0,2]; discourages repeating the same diagnosis.
	FrequencyPenalty float64
}

// DefaultSamplingParams returns the process-wide sampling defaults.
func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		Temperature:      0.2,
		TopP:             0.85,
		TopK:             40,
		MaxTokens:        256,
		FrequencyPenalty: 0.3,
	}
}
