package types

// GenerateRequest is the payload accepted by POST /generate.
type GenerateRequest struct {
	// Free-text clinical note to extract diagnoses from. Required.
	// example: 67-year-old male with productive cough, fever and dyspnea.
	ClinicalNote string `json:"clinical_note" example:"67-year-old male with productive cough, fever and dyspnea."`
	// Sampling temperature override (0.0-1.0). Zero uses the server default.
	// example: 0.2
	Temperature float64 `json:"temperature,omitempty" example:"0.2"`
	// Nucleus sampling override (0.0-1.0). Zero uses the server default.
	// example: 0.85
	TopP float64 `json:"top_p,omitempty" example:"0.85"`
	// Top-K sampling override. Zero uses the server default.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Maximum number of new tokens to generate. Zero uses the server default.
	// example: 256
	MaxLength int `json:"max_length,omitempty" example:"256"`
	// Frequency penalty override (0.0-2.0). Zero uses the server default.
	// example: 0.3
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty" example:"0.3"`
}

// DiagnosesResponse is returned by POST /generate on success.
type DiagnosesResponse struct {
	// Ordered list of extracted diagnosis names. Never empty on a 200;
	// duplicates are removed case-insensitively, first appearance wins.
	Diagnoses []string `json:"diagnoses"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: clinical_note is required
	Error string `json:"error" example:"clinical_note is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Model id served by the engine.
	// example: microsoft/BioGPT-Large
	Model string `json:"model" example:"microsoft/BioGPT-Large"`
	// Device mode the engine was initialized with (gpu or cpu).
	// example: gpu
	Device string `json:"device" example:"gpu"`
	// Whether the engine answered its last health probe.
	// example: true
	EngineReady bool `json:"engine_ready" example:"true"`
	// Total /generate requests received.
	// example: 120
	RequestsTotal uint64 `json:"requests_total" example:"120"`
	// Requests rejected by input validation.
	// example: 3
	ValidationFailures uint64 `json:"validation_failures" example:"3"`
	// Requests failed by the inference engine.
	// example: 1
	EngineFailures uint64 `json:"engine_failures" example:"1"`
	// Requests whose model output could not be parsed.
	// example: 2
	ParseFailures uint64 `json:"parse_failures" example:"2"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
