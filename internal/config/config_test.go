package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Save original environment and restore after test
	originalEnv := saveEnv()
	defer restoreEnv(originalEnv)

	tests := []struct {
		name     string
		env      map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.ShutdownTimeout != 10*time.Second {
					t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
				}
				if cfg.Observability.EnableTelemetry {
					t.Error("Observability.EnableTelemetry = true, want false (disabled by default)")
				}
				if cfg.Observability.ServiceName != "intentd" {
					t.Errorf("Observability.ServiceName = %q, want intentd", cfg.Observability.ServiceName)
				}
				if cfg.Matching.DefaultConfidenceThreshold != 0.7 {
					t.Errorf("Matching.DefaultConfidenceThreshold = %v, want 0.7", cfg.Matching.DefaultConfidenceThreshold)
				}
				if cfg.Matching.SemanticSimilarityThreshold != 0.55 {
					t.Errorf("Matching.SemanticSimilarityThreshold = %v, want 0.55", cfg.Matching.SemanticSimilarityThreshold)
				}
				if cfg.Matching.MaxBatchSize != 100 {
					t.Errorf("Matching.MaxBatchSize = %d, want 100", cfg.Matching.MaxBatchSize)
				}
				if cfg.Embeddings.Provider != "fastembed" {
					t.Errorf("Embeddings.Provider = %q, want fastembed", cfg.Embeddings.Provider)
				}
				if cfg.LLM.EnableFallback {
					t.Error("LLM.EnableFallback = true, want false by default")
				}
				if cfg.LLM.RequestTimeout != 10*time.Second {
					t.Errorf("LLM.RequestTimeout = %v, want 10s", cfg.LLM.RequestTimeout)
				}
				if cfg.Cache.Enabled {
					t.Error("Cache.Enabled = true, want false by default")
				}
				if cfg.Cache.TTL != time.Hour {
					t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
				}
				if cfg.LogSink.QueueSize != 1000 {
					t.Errorf("LogSink.QueueSize = %d, want 1000", cfg.LogSink.QueueSize)
				}
				if cfg.Qdrant.Enabled {
					t.Error("Qdrant.Enabled = true, want false by default")
				}
			},
		},
		{
			name: "environment variable overrides",
			env: map[string]string{
				"SERVER_PORT":             "9090",
				"SERVER_SHUTDOWN_TIMEOUT": "5s",
				"OTEL_ENABLE":             "false",
				"OTEL_SERVICE_NAME":       "test-service",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Server.ShutdownTimeout != 5*time.Second {
					t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
				}
				if cfg.Observability.EnableTelemetry {
					t.Error("Observability.EnableTelemetry = true, want false")
				}
				if cfg.Observability.ServiceName != "test-service" {
					t.Errorf("Observability.ServiceName = %q, want test-service", cfg.Observability.ServiceName)
				}
			},
		},
		{
			name: "matching environment overrides",
			env: map[string]string{
				"MATCHING_DEFAULT_CONFIDENCE_THRESHOLD":  "0.8",
				"MATCHING_SEMANTIC_SIMILARITY_THRESHOLD": "0.6",
				"MATCHING_MAX_BATCH_SIZE":                "50",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Matching.DefaultConfidenceThreshold != 0.8 {
					t.Errorf("Matching.DefaultConfidenceThreshold = %v, want 0.8", cfg.Matching.DefaultConfidenceThreshold)
				}
				if cfg.Matching.SemanticSimilarityThreshold != 0.6 {
					t.Errorf("Matching.SemanticSimilarityThreshold = %v, want 0.6", cfg.Matching.SemanticSimilarityThreshold)
				}
				if cfg.Matching.MaxBatchSize != 50 {
					t.Errorf("Matching.MaxBatchSize = %d, want 50", cfg.Matching.MaxBatchSize)
				}
			},
		},
		{
			name: "llm fallback environment overrides",
			env: map[string]string{
				"LLM_ENABLE_FALLBACK": "true",
				"LLM_MODEL":           "claude-3-haiku-20240307",
				"LLM_REQUEST_TIMEOUT": "45s",
			},
			validate: func(t *testing.T, cfg *Config) {
				if !cfg.LLM.EnableFallback {
					t.Error("LLM.EnableFallback = false, want true")
				}
				if cfg.LLM.Model != "claude-3-haiku-20240307" {
					t.Errorf("LLM.Model = %q, want claude-3-haiku-20240307", cfg.LLM.Model)
				}
				// 45s exceeds the hard ceiling and must be clamped to 30s
				if cfg.LLM.RequestTimeout != 30*time.Second {
					t.Errorf("LLM.RequestTimeout = %v, want 30s (clamped)", cfg.LLM.RequestTimeout)
				}
			},
		},
		{
			name: "cache environment overrides",
			env: map[string]string{
				"CACHE_ENABLED":   "true",
				"CACHE_TTL":       "30m",
				"CACHE_REDIS_URL": "redis://cache.internal:6379/1",
			},
			validate: func(t *testing.T, cfg *Config) {
				if !cfg.Cache.Enabled {
					t.Error("Cache.Enabled = false, want true")
				}
				if cfg.Cache.TTL != 30*time.Minute {
					t.Errorf("Cache.TTL = %v, want 30m", cfg.Cache.TTL)
				}
				if cfg.Cache.RedisURL != "redis://cache.internal:6379/1" {
					t.Errorf("Cache.RedisURL = %q, want redis://cache.internal:6379/1", cfg.Cache.RedisURL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear and set environment
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg := Load()
			if cfg == nil {
				t.Fatal("Load() returned nil")
			}

			tt.validate(t, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	validBase := func() *Config {
		cfg := Load()
		os.Clearenv()
		return cfg
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     validBase(),
			wantErr: false,
		},
		{
			name: "invalid port - too low",
			cfg: func() *Config {
				c := validBase()
				c.Server.Port = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid port - too high",
			cfg: func() *Config {
				c := validBase()
				c.Server.Port = 70000
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid shutdown timeout",
			cfg: func() *Config {
				c := validBase()
				c.Server.ShutdownTimeout = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "empty service name with telemetry enabled",
			cfg: func() *Config {
				c := validBase()
				c.Observability.EnableTelemetry = true
				c.Observability.ServiceName = ""
				return c
			}(),
			wantErr: true,
		},
		{
			name: "confidence threshold out of range",
			cfg: func() *Config {
				c := validBase()
				c.Matching.DefaultConfidenceThreshold = 1.5
				return c
			}(),
			wantErr: true,
		},
		{
			name: "max batch size zero",
			cfg: func() *Config {
				c := validBase()
				c.Matching.MaxBatchSize = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "llm timeout exceeds hard ceiling",
			cfg: func() *Config {
				c := validBase()
				c.LLM.RequestTimeout = time.Minute
				return c
			}(),
			wantErr: true,
		},
		{
			name: "cache enabled with zero ttl",
			cfg: func() *Config {
				c := validBase()
				c.Cache.Enabled = true
				c.Cache.TTL = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "logsink queue size zero",
			cfg: func() *Config {
				c := validBase()
				c.LogSink.QueueSize = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "qdrant enabled with invalid port",
			cfg: func() *Config {
				c := validBase()
				c.Qdrant.Enabled = true
				c.Qdrant.Port = 99999
				return c
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoad_EmbeddingsONNXVersion tests ONNX version configuration loading
func TestLoad_EmbeddingsONNXVersion(t *testing.T) {
	originalEnv := saveEnv()
	defer restoreEnv(originalEnv)

	tests := []struct {
		name     string
		env      map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name: "onnx version default empty",
			env:  map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Embeddings.ONNXVersion != "" {
					t.Errorf("Embeddings.ONNXVersion = %q, want empty string", cfg.Embeddings.ONNXVersion)
				}
			},
		},
		{
			name: "onnx version environment override",
			env: map[string]string{
				"EMBEDDINGS_ONNX_VERSION": "1.20.0",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Embeddings.ONNXVersion != "1.20.0" {
					t.Errorf("Embeddings.ONNXVersion = %q, want 1.20.0", cfg.Embeddings.ONNXVersion)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg := Load()
			if cfg == nil {
				t.Fatal("Load() returned nil")
			}

			tt.validate(t, cfg)
		})
	}
}

// Helper functions to save/restore environment
func saveEnv() map[string]string {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	return env
}

func restoreEnv(env map[string]string) {
	os.Clearenv()
	for k, v := range env {
		os.Setenv(k, v)
	}
}
