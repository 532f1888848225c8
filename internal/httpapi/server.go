package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diagnosisd/internal/engine"
	"diagnosisd/internal/extract"
	"diagnosisd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Extract(ctx context.Context, req types.GenerateRequest) (types.DiagnosesResponse, error)
	Status(ctx context.Context) types.StatusResponse
	Ready(ctx context.Context) bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// generate godoc
	// @Summary      Extract diagnoses from a clinical note
	// @Accept       json
	// @Produce      json
	// @Param        request body types.GenerateRequest true "clinical note"
	// @Success      200 {object} types.DiagnosesResponse
	// @Failure      400 {object} types.ErrorResponse
	// @Failure      502 {object} types.ErrorResponse
	// @Failure      503 {object} types.ErrorResponse
	// @Router       /generate [post]
	r.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Str("path", r.URL.Path).Int("note_len", len(req.ClinicalNote))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("generate start")
			} else {
				log.Printf("generate start path=%s note_len=%d", r.URL.Path, len(req.ClinicalNote))
			}
		}
		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		joinedCtx = extract.WithRequestID(joinedCtx, middleware.GetReqID(r.Context()))

		resp, err := svc.Extract(joinedCtx, req)
		if err != nil {
			// If context was canceled (client disconnect), just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := mapError(err)
			incrementStageFailure(stageOf(err))
			writeJSONError(w, status, errorMessage(err, status))
			logEnd(r, lvl, status, start, err, "generate end")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
		logEnd(r, lvl, http.StatusOK, start, nil, "generate end")
	})

	// healthz godoc
	// @Summary      Process liveness
	// @Success      200 {string} string "ok"
	// @Router       /healthz [get]
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status(r.Context())); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
			return
		}
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// mapError converts pipeline errors to HTTP status codes.
func mapError(err error) int {
	switch {
	case extract.IsValidation(err):
		return http.StatusBadRequest
	case engine.IsOutOfMemory(err), engine.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case engine.IsGeneration(err), extract.IsParse(err):
		return http.StatusBadGateway
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// stageOf labels the pipeline stage that failed, for metrics.
func stageOf(err error) string {
	switch {
	case extract.IsValidation(err):
		return "validate"
	case engine.IsOutOfMemory(err), engine.IsUnavailable(err), engine.IsGeneration(err):
		return "engine"
	case extract.IsParse(err):
		return "parse"
	}
	return "other"
}

// errorMessage keeps 5xx bodies free of internal detail.
func errorMessage(err error, status int) string {
	switch {
	case extract.IsParse(err):
		return "model produced unusable output"
	case engine.IsUnavailable(err):
		return "inference engine unavailable"
	}
	if status >= 500 && !engine.IsOutOfMemory(err) {
		return "error processing request"
	}
	return err.Error()
}

// logEnd emits a request summary line at Info and above.
func logEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error, msg string) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			z = z.Err(err)
		}
		z.Msg(msg)
		return
	}
	log.Printf("%s status=%d dur=%s err=%v", msg, status, time.Since(start), err)
}
