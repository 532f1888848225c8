package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"diagnosisd/internal/config"
	"diagnosisd/internal/engine"
	"diagnosisd/internal/extract"
	"diagnosisd/internal/httpapi"
	"diagnosisd/pkg/types"
)

func main() {
	// Optional .env for local development; real deployments set env directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Optional config file (.yaml/.json/.toml)")
	addr := flag.String("addr", "", "HTTP listen address, e.g. :8000")
	engineMode := flag.String("engine-mode", "", "Engine integration: server|spawn")
	engineURL := flag.String("engine-url", "", "Base URL of a running inference engine (server mode)")
	model := flag.String("model", "", "Model id served by the engine")
	gpu := flag.String("gpu", "", "GPU toggle: enabled|disabled")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error")
	flag.Parse()

	cfg := loadConfig(*configPath)
	config.ApplyEnv(&cfg)
	// Flags win over env and file.
	applyFlag(&cfg.Addr, *addr)
	applyFlag(&cfg.EngineMode, *engineMode)
	applyFlag(&cfg.EngineURL, *engineURL)
	applyFlag(&cfg.Model, *model)
	applyFlag(&cfg.GPU, *gpu)
	applyFlag(&cfg.LogLevel, *logLevel)
	applyDefaults(&cfg)

	logger := newLogger(cfg.LogLevel)

	eng, err := newEngine(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize inference engine")
	}
	defer eng.Close()
	logger.Info().Str("mode", cfg.EngineMode).Str("model", cfg.Model).
		Bool("gpu", cfg.GPUEnabled()).Msg("engine initialized")

	svc := extract.NewService(eng, extract.Config{
		Model:    cfg.Model,
		UseGPU:   cfg.GPUEnabled(),
		Defaults: samplingDefaults(cfg),
	}, logger)

	httpapi.SetLogger(logger)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("diagnosisd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		return config.Config{}
	}
	cfg, err := config.Load(path)
	if err != nil {
		// Logger is not configured yet; fail loudly on stderr.
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Str("path", path).Msg("failed to load config")
	}
	return cfg
}

func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *config.Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.EngineMode == "" {
		cfg.EngineMode = "server"
	}
	if cfg.EngineURL == "" {
		cfg.EngineURL = "http://127.0.0.1:8001"
	}
	if cfg.Model == "" {
		cfg.Model = "microsoft/BioGPT-Large"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func newEngine(cfg config.Config) (engine.Engine, error) {
	reqTimeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	switch cfg.EngineMode {
	case "spawn":
		return engine.NewSpawnEngine(engine.SpawnConfig{
			Bin:        cfg.EngineBin,
			Model:      cfg.Model,
			PortMin:    cfg.EnginePortMin,
			PortMax:    cfg.EnginePortMax,
			UseGPU:     cfg.GPUEnabled(),
			ReqTimeout: reqTimeout,
		})
	default:
		return engine.NewServerEngine(engine.ServerConfig{
			BaseURL:    cfg.EngineURL,
			APIKey:     cfg.EngineKey,
			Model:      cfg.Model,
			ReqTimeout: reqTimeout,
		}), nil
	}
}

func samplingDefaults(cfg config.Config) types.SamplingParams {
	p := types.DefaultSamplingParams()
	if cfg.Sampling.Temperature != 0 {
		p.Temperature = cfg.Sampling.Temperature
	}
	if cfg.Sampling.TopP != 0 {
		p.TopP = cfg.Sampling.TopP
	}
	if cfg.Sampling.TopK != 0 {
		p.TopK = cfg.Sampling.TopK
	}
	if cfg.Sampling.MaxLength != 0 {
		p.MaxTokens = cfg.Sampling.MaxLength
	}
	if cfg.Sampling.FrequencyPenalty != 0 {
		p.FrequencyPenalty = cfg.Sampling.FrequencyPenalty
	}
	return p
}
