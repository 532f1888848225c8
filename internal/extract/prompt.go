package extract

import (
	"fmt"

	"diagnosisd/pkg/types"
)

// promptTemplate instructs a decoder-style model to emit a bare
// comma-separated list. Decoder models need an explicit output-shape
// instruction or they pad the list with prose.
const promptTemplate = `You are a medical expert. Extract all diagnoses from the clinical note below. Carefully read the following clinical note and list ALL possible diagnoses mentioned. The clinical note has all the information you need and it comes from the hospital.

Clinical Note: %s

Provide your answer as a simple comma-separated list of diagnoses without numbering, explanations, or other text:`

// BuildPrompt embeds the validated note in the instructional template and
// resolves the effective sampling parameters: per-request overrides where
// set, configured defaults otherwise. Pure; never fails on validated input.
func BuildPrompt(req types.GenerateRequest, defaults types.SamplingParams) (string, types.SamplingParams) {
	params := defaults
	if req.Temperature != 0 {
		params.Temperature = req.Temperature
	}
	if req.TopP != 0 {
		params.TopP = req.TopP
	}
	if req.TopK != 0 {
		params.TopK = req.TopK
	}
	if req.MaxLength != 0 {
		params.MaxTokens = req.MaxLength
	}
	if req.FrequencyPenalty != 0 {
		params.FrequencyPenalty = req.FrequencyPenalty
	}
	return fmt.Sprintf(promptTemplate, req.ClinicalNote), params
}
