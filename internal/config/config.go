// Package config provides configuration loading for intentd.
//
// Configuration is loaded from environment variables with sensible defaults.
// This package supports server, observability, and recognition-domain settings.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete intentd configuration.
type Config struct {
	Production    ProductionConfig
	Server        ServerConfig
	Observability ObservabilityConfig
	Matching      MatchingConfig
	Embeddings    EmbeddingsConfig
	LLM           LLMConfig
	Cache         CacheConfig
	LogSink       LogSinkConfig
	Qdrant        QdrantConfig
	VectorStore   VectorStoreConfig
}

// MatchingConfig holds the recognition-pipeline-wide defaults that apply
// when an application's own configuration doesn't override them.
type MatchingConfig struct {
	// DefaultConfidenceThreshold is loaded, defaulted and validated, but
	// the recognition path does not read it: fallback.Controller applies a
	// fixed 0.7 to an application whose ConfidenceThreshold is zero.
	// Default: 0.7.
	DefaultConfidenceThreshold float64 `koanf:"default_confidence_threshold"`

	// SemanticSimilarityThreshold gates the Semantic matcher.
	// Default: 0.55.
	SemanticSimilarityThreshold float64 `koanf:"semantic_similarity_threshold"`

	// MaxBatchSize bounds POST /intent/recognize/batch. Default: 100.
	MaxBatchSize int `koanf:"max_batch_size"`

	// RequestTimeout is the overall per-request deadline. Default: 30s.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// APIKeyHeader names the HTTP header carrying the caller's API key,
	// checked at the boundary layer. Default: X-API-Key.
	APIKeyHeader string `koanf:"api_key_header"`
}

// EmbeddingsConfig holds embedding-encoder configuration.
type EmbeddingsConfig struct {
	Provider    string `koanf:"provider"`     // "fastembed" or "tei"
	Model       string `koanf:"model"`        // model_type/model name tag
	BaseURL     string `koanf:"base_url"`     // TEI URL (if using TEI)
	CacheDir    string `koanf:"cache_dir"`    // Model cache directory for fastembed
	ModelPath   string `koanf:"model_path"`   // filesystem or registry locator
	ModelDevice string `koanf:"model_device"` // cpu/gpu tag
	ONNXVersion string `koanf:"onnx_version"` // Optional ONNX runtime version override

	// FallbackPolicy decides what happens when the provider fails to load
	// at startup: "disable" turns the semantic matcher off, "pseudo"
	// substitutes deterministic hash-seeded vectors so the pipeline shape
	// stays intact (useful in tests and demos, no semantic signal).
	FallbackPolicy string `koanf:"fallback_policy"`
}

// LLMConfig holds the LLM fallback matcher's client configuration.
type LLMConfig struct {
	APIKey  Secret `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`

	// EnableFallback governs only the missing-configuration path: when an
	// app_key is unknown, inactive or has no active categories, the LLM is
	// tried against all active categories only if this is set. Low-confidence
	// and no-match fallback follow each application's EnableLLMFallback alone.
	EnableFallback bool `koanf:"enable_fallback"`

	// RequestTimeout bounds a single chat-completion call. Default 10s,
	// clamped to a hard ceiling of 30s.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RateLimitPerSecond caps outbound LLM calls across all tenants
	// sharing this process, protecting the pooled HTTP client from runaway
	// fan-out during a traffic spike. Zero disables the limiter.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
}

// CacheConfig holds the Result Cache backing store configuration.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	TTL      time.Duration `koanf:"ttl"`
	Prefix   string        `koanf:"prefix"`
	RedisURL string        `koanf:"redis_url"`
}

// LogSinkConfig holds the Async Log Sink queue/worker configuration.
type LogSinkConfig struct {
	QueueSize     int           `koanf:"queue_size"`
	DrainDeadline time.Duration `koanf:"drain_deadline"`

	// NATS mirror: a second, non-blocking consumer that publishes log
	// entries for external analytics pipelines. Disabled unless a URL is set.
	NATSEnabled bool   `koanf:"nats_enabled"`
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`
}

// QdrantConfig optionally backs the Semantic matcher with a
// persistent cache of rule embeddings, so a pipeline recompile after a
// restart doesn't have to re-encode every semantic rule before serving
// traffic. Disabled unless VectorStore.Provider == "qdrant". The Semantic
// matcher always keeps an in-memory copy regardless.
type QdrantConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Host             string `koanf:"host"`
	Port             int    `koanf:"port"`
	CollectionPrefix string `koanf:"collection_prefix"`
}

// VectorStoreConfig selects the optional persistence backend for Semantic
// matcher rule vectors. "none" disables persistence
// entirely — the matcher still works from its in-memory category map, it
// just re-encodes every rule after a restart.
type VectorStoreConfig struct {
	Provider string       `koanf:"provider"` // "chromem" (default), "qdrant", or "none"
	Chromem  ChromemConfig `koanf:"chromem"`
}

// ChromemConfig configures the embedded, zero-external-dependency
// chromem-go vector store used when VectorStore.Provider == "chromem".
type ChromemConfig struct {
	Path              string `koanf:"path"`               // on-disk persistence directory; empty = in-memory only
	DefaultCollection string `koanf:"default_collection"` // collection name prefix for rule vectors
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry   bool   `koanf:"enable_telemetry"`
	ServiceName       string `koanf:"service_name"`
	OTLPEndpoint      string `koanf:"otlp_endpoint"`        // OTLP endpoint (default: localhost:4317)
	OTLPProtocol      string `koanf:"otlp_protocol"`        // "grpc" or "http/protobuf" (default: grpc)
	OTLPInsecure      bool   `koanf:"otlp_insecure"`        // Use insecure connection (default: true for localhost)
	OTLPTLSSkipVerify bool   `koanf:"otlp_tls_skip_verify"` // Skip TLS verification for internal CAs
}

// Load loads configuration from environment variables with defaults.
//
// Quick Start - Most commonly configured env vars:
//
//   - MATCHING_DEFAULT_CONFIDENCE_THRESHOLD: per-app confidence floor (default: 0.7)
//   - MATCHING_SEMANTIC_SIMILARITY_THRESHOLD: semantic matcher floor (default: 0.55)
//   - EMBEDDINGS_PROVIDER: fastembed (default, local) or tei (remote)
//   - LLM_ENABLE_FALLBACK: enable the LLM fallback matcher globally (default: false)
//   - CACHE_ENABLED: enable the Result Cache (default: false)
//   - INTENTD_PRODUCTION_MODE: enable production safety checks (default: false)
//
// All environment variables:
//
// Server:
//   - SERVER_PORT: HTTP server port (default: 9090)
//   - SERVER_SHUTDOWN_TIMEOUT: Graceful shutdown timeout (default: 10s)
//
// Matching:
//   - MATCHING_DEFAULT_CONFIDENCE_THRESHOLD: default per-app threshold (default: 0.7)
//   - MATCHING_SEMANTIC_SIMILARITY_THRESHOLD: semantic matcher floor (default: 0.55)
//   - MATCHING_MAX_BATCH_SIZE: batch endpoint cap (default: 100)
//   - MATCHING_REQUEST_TIMEOUT: per-request deadline (default: 30s)
//   - MATCHING_API_KEY_HEADER: auth header name (default: X-API-Key)
//
// Embeddings:
//   - EMBEDDINGS_PROVIDER: Provider type: fastembed or tei (default: fastembed)
//   - EMBEDDINGS_MODEL: Embedding model (default: BAAI/bge-small-en-v1.5)
//   - EMBEDDING_BASE_URL: TEI URL if using TEI (default: http://localhost:8080)
//   - EMBEDDINGS_CACHE_DIR: Model cache directory for fastembed (default: "")
//   - EMBEDDINGS_MODEL_PATH: filesystem/registry locator (default: "")
//   - EMBEDDINGS_MODEL_DEVICE: cpu or gpu (default: cpu)
//   - EMBEDDINGS_FALLBACK_POLICY: disable or pseudo, applied when the provider fails to load (default: disable)
//
// LLM fallback:
//   - LLM_API_KEY, LLM_BASE_URL, LLM_MODEL
//   - LLM_ENABLE_FALLBACK: global default (default: false)
//   - LLM_REQUEST_TIMEOUT: per-call timeout (default: 10s, clamped to 30s)
//   - LLM_RATE_LIMIT_PER_SECOND: process-wide outbound call cap (default: 5)
//
// Result cache:
//   - CACHE_ENABLED, CACHE_TTL (default: 1h), CACHE_PREFIX (default: "intentd"), CACHE_REDIS_URL
//
// Log sink:
//   - LOGSINK_QUEUE_SIZE (default: 1000), LOGSINK_DRAIN_DEADLINE (default: 5s)
//   - LOGSINK_NATS_ENABLED, LOGSINK_NATS_URL, LOGSINK_NATS_SUBJECT
//
// Qdrant (optional semantic-rule vector cache):
//   - QDRANT_ENABLED, QDRANT_HOST, QDRANT_PORT, QDRANT_COLLECTION_PREFIX
//
// Telemetry:
//   - OTEL_ENABLE: Enable OpenTelemetry (default: false, requires OTEL collector)
//   - OTEL_SERVICE_NAME: Service name for traces (default: intentd)
//   - OTEL_OTLP_ENDPOINT: OTLP collector endpoint (default: localhost:4317)
//   - OTEL_OTLP_PROTOCOL: grpc or http/protobuf (default: grpc)
//   - OTEL_OTLP_INSECURE: plaintext OTLP, local endpoints only (default: true)
//   - OTEL_OTLP_TLS_SKIP_VERIFY: skip TLS verification for internal CAs (default: false)
//
// Example:
//
//	cfg := config.Load()
//	fmt.Println("confidence floor:", cfg.Matching.DefaultConfidenceThreshold)
func Load() *Config {
	cfg := &Config{
		Production: ProductionConfig{
			Enabled:               getEnvBool("INTENTD_PRODUCTION_MODE", false),
			LocalModeAcknowledged: getEnvBool("INTENTD_LOCAL_MODE", false),
			RequireAuthentication: getEnvBool("INTENTD_REQUIRE_AUTH", false),
			RequireTLS:            getEnvBool("INTENTD_REQUIRE_TLS", false),
			AllowNoIsolation:      getEnvBool("INTENTD_ALLOW_NO_ISOLATION", false),
		},
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 9090),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Observability: ObservabilityConfig{
			EnableTelemetry:   getEnvBool("OTEL_ENABLE", false),
			ServiceName:       getEnvString("OTEL_SERVICE_NAME", "intentd"),
			OTLPEndpoint:      getEnvString("OTEL_OTLP_ENDPOINT", "localhost:4317"),
			OTLPProtocol:      getEnvString("OTEL_OTLP_PROTOCOL", "grpc"),
			OTLPInsecure:      getEnvBool("OTEL_OTLP_INSECURE", true),
			OTLPTLSSkipVerify: getEnvBool("OTEL_OTLP_TLS_SKIP_VERIFY", false),
		},
	}

	cfg.Matching = MatchingConfig{
		DefaultConfidenceThreshold:  getEnvFloat("MATCHING_DEFAULT_CONFIDENCE_THRESHOLD", 0.7),
		SemanticSimilarityThreshold: getEnvFloat("MATCHING_SEMANTIC_SIMILARITY_THRESHOLD", 0.55),
		MaxBatchSize:                getEnvInt("MATCHING_MAX_BATCH_SIZE", 100),
		RequestTimeout:              getEnvDuration("MATCHING_REQUEST_TIMEOUT", 30*time.Second),
		APIKeyHeader:                getEnvString("MATCHING_API_KEY_HEADER", "X-API-Key"),
	}

	cfg.Embeddings = EmbeddingsConfig{
		Provider:    getEnvString("EMBEDDINGS_PROVIDER", "fastembed"),
		Model:       getEnvString("EMBEDDINGS_MODEL", "BAAI/bge-small-en-v1.5"),
		BaseURL:     getEnvString("EMBEDDING_BASE_URL", "http://localhost:8080"),
		CacheDir:    getEnvString("EMBEDDINGS_CACHE_DIR", ""),
		ModelPath:   getEnvString("EMBEDDINGS_MODEL_PATH", ""),
		ModelDevice:    getEnvString("EMBEDDINGS_MODEL_DEVICE", "cpu"),
		ONNXVersion:    getEnvString("EMBEDDINGS_ONNX_VERSION", ""),
		FallbackPolicy: getEnvString("EMBEDDINGS_FALLBACK_POLICY", "disable"),
	}

	cfg.LLM = LLMConfig{
		APIKey:             Secret(getEnvString("LLM_API_KEY", "")),
		BaseURL:            getEnvString("LLM_BASE_URL", ""),
		Model:              getEnvString("LLM_MODEL", ""),
		EnableFallback:     getEnvBool("LLM_ENABLE_FALLBACK", false),
		RequestTimeout:     clampLLMTimeout(getEnvDuration("LLM_REQUEST_TIMEOUT", 10*time.Second)),
		RateLimitPerSecond: getEnvFloat("LLM_RATE_LIMIT_PER_SECOND", 5),
	}

	cfg.Cache = CacheConfig{
		Enabled:  getEnvBool("CACHE_ENABLED", false),
		TTL:      getEnvDuration("CACHE_TTL", time.Hour),
		Prefix:   getEnvString("CACHE_PREFIX", "intentd"),
		RedisURL: getEnvString("CACHE_REDIS_URL", "redis://localhost:6379/0"),
	}

	cfg.LogSink = LogSinkConfig{
		QueueSize:     getEnvInt("LOGSINK_QUEUE_SIZE", 1000),
		DrainDeadline: getEnvDuration("LOGSINK_DRAIN_DEADLINE", 5*time.Second),
		NATSEnabled:   getEnvBool("LOGSINK_NATS_ENABLED", false),
		NATSURL:       getEnvString("LOGSINK_NATS_URL", "nats://localhost:4222"),
		NATSSubject:   getEnvString("LOGSINK_NATS_SUBJECT", "intentd.recognition.log"),
	}

	cfg.Qdrant = QdrantConfig{
		Enabled:          getEnvBool("QDRANT_ENABLED", false),
		Host:             getEnvString("QDRANT_HOST", "localhost"),
		Port:             getEnvInt("QDRANT_PORT", 6334),
		CollectionPrefix: getEnvString("QDRANT_COLLECTION_PREFIX", "intentd_semantic"),
	}

	cfg.VectorStore = VectorStoreConfig{
		Provider: getEnvString("VECTORSTORE_PROVIDER", "chromem"),
		Chromem: ChromemConfig{
			Path:              getEnvString("VECTORSTORE_CHROMEM_PATH", ""),
			DefaultCollection: getEnvString("VECTORSTORE_CHROMEM_COLLECTION", "intentd_semantic"),
		},
	}
	cfg.Qdrant.Enabled = cfg.Qdrant.Enabled || cfg.VectorStore.Provider == "qdrant"

	return cfg
}

// hardLLMTimeoutCeiling caps LLM request timeouts regardless of configuration.
const hardLLMTimeoutCeiling = 30 * time.Second

func clampLLMTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	if d > hardLLMTimeoutCeiling {
		return hardLLMTimeoutCeiling
	}
	return d
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Service name is empty (when telemetry is enabled)
//   - Any threshold, timeout, or URL is out of range
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	if c.Matching.DefaultConfidenceThreshold < 0 || c.Matching.DefaultConfidenceThreshold > 1 {
		return fmt.Errorf("invalid MATCHING_DEFAULT_CONFIDENCE_THRESHOLD: %f (must be 0..1)", c.Matching.DefaultConfidenceThreshold)
	}
	if c.Matching.SemanticSimilarityThreshold < 0 || c.Matching.SemanticSimilarityThreshold > 1 {
		return fmt.Errorf("invalid MATCHING_SEMANTIC_SIMILARITY_THRESHOLD: %f (must be 0..1)", c.Matching.SemanticSimilarityThreshold)
	}
	if c.Matching.MaxBatchSize < 1 {
		return fmt.Errorf("invalid MATCHING_MAX_BATCH_SIZE: %d (must be >= 1)", c.Matching.MaxBatchSize)
	}
	if c.Matching.RequestTimeout <= 0 {
		return errors.New("MATCHING_REQUEST_TIMEOUT must be positive")
	}

	if c.Embeddings.CacheDir != "" {
		if err := validatePath(c.Embeddings.CacheDir); err != nil {
			return fmt.Errorf("invalid EMBEDDINGS_CACHE_DIR: %w", err)
		}
	}
	if c.Embeddings.BaseURL != "" {
		if err := validateURL(c.Embeddings.BaseURL); err != nil {
			return fmt.Errorf("invalid EMBEDDING_BASE_URL: %w", err)
		}
	}
	switch c.Embeddings.FallbackPolicy {
	case "", "disable", "pseudo":
	default:
		return fmt.Errorf("invalid EMBEDDINGS_FALLBACK_POLICY: %q (must be disable or pseudo)", c.Embeddings.FallbackPolicy)
	}

	if c.LLM.BaseURL != "" {
		if err := validateURL(c.LLM.BaseURL); err != nil {
			return fmt.Errorf("invalid LLM_BASE_URL: %w", err)
		}
	}
	if c.LLM.RequestTimeout <= 0 || c.LLM.RequestTimeout > hardLLMTimeoutCeiling {
		return fmt.Errorf("invalid LLM_REQUEST_TIMEOUT: %s (must be (0, %s])", c.LLM.RequestTimeout, hardLLMTimeoutCeiling)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive when the cache is enabled")
	}

	if c.LogSink.QueueSize < 1 {
		return fmt.Errorf("invalid LOGSINK_QUEUE_SIZE: %d (must be >= 1)", c.LogSink.QueueSize)
	}
	if c.LogSink.DrainDeadline <= 0 {
		return errors.New("LOGSINK_DRAIN_DEADLINE must be positive")
	}

	if c.Qdrant.Enabled {
		if err := validateHostname(c.Qdrant.Host); err != nil {
			return fmt.Errorf("invalid QDRANT_HOST: %w", err)
		}
		if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid QDRANT_PORT: %d (must be 1-65535)", c.Qdrant.Port)
		}
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant", "none":
	default:
		return fmt.Errorf("invalid VECTORSTORE_PROVIDER: %q (must be chromem, qdrant, or none)", c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "chromem" && c.VectorStore.Chromem.Path != "" {
		if err := validatePath(c.VectorStore.Chromem.Path); err != nil {
			return fmt.Errorf("invalid VECTORSTORE_CHROMEM_PATH: %w", err)
		}
	}

	if err := c.Production.Validate(); err != nil {
		return fmt.Errorf("production config validation failed: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ProductionConfig holds production deployment configuration.
type ProductionConfig struct {
	// Enabled indicates whether production mode is active.
	// Set via INTENTD_PRODUCTION_MODE=1 environment variable.
	Enabled bool `koanf:"enabled"`

	// LocalModeAcknowledged allows development features in production mode.
	// Set via INTENTD_LOCAL_MODE=1 environment variable.
	// Use only for local development/testing.
	LocalModeAcknowledged bool `koanf:"local_mode_acknowledged"`

	// RequireAuthentication enforces authentication in production.
	RequireAuthentication bool `koanf:"require_authentication"`

	// AuthenticationConfigured indicates if auth is properly set up.
	AuthenticationConfigured bool `koanf:"authentication_configured"`

	// RequireTLS enforces TLS for external services (Redis, LLM, OTEL).
	RequireTLS bool `koanf:"require_tls"`

	// AllowNoIsolation permits NoIsolation mode (testing only).
	// Always false in production mode.
	AllowNoIsolation bool `koanf:"allow_no_isolation"`
}

// IsProduction returns true if running in production mode.
func (c *ProductionConfig) IsProduction() bool {
	return c.Enabled
}

// IsLocal returns true if local mode is acknowledged.
func (c *ProductionConfig) IsLocal() bool {
	return c.LocalModeAcknowledged
}

// Validate checks production configuration for security issues.
func (c *ProductionConfig) Validate() error {
	if !c.Enabled {
		return nil // Not in production, skip validation
	}

	if c.AllowNoIsolation {
		return fmt.Errorf("SECURITY: NoIsolation mode cannot be enabled in production")
	}

	if c.RequireAuthentication && !c.AuthenticationConfigured {
		return fmt.Errorf("SECURITY: RequireAuthentication enabled but authentication not configured")
	}

	return nil
}

// validateHostname checks if a hostname is safe (no command injection attempts).
// Uses positive validation with net.ParseIP for IP addresses and regexp for hostnames.
func validateHostname(host string) error {
	// Empty hostname is allowed (config may use defaults)
	if host == "" {
		return nil
	}

	// Try parsing as IP first
	if net.ParseIP(host) != nil {
		return nil // Valid IP address
	}

	// Validate hostname format (RFC 1123)
	// Allow alphanumeric, dots, hyphens. Must not start/end with dash.
	hostnameRegex := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format: %s", host)
	}

	// Additional blacklist check for shell metacharacters (defense in depth)
	invalidChars := []string{";", "\n", "\r", "$", "`", "|", "&", "<", ">", "(", ")"}
	for _, char := range invalidChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("invalid hostname: contains forbidden character %q", char)
		}
	}
	return nil
}

// validatePath checks if a path is safe (no path traversal)
func validatePath(path string) error {
	// Check for path traversal sequences
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains traversal sequence: %s", path)
	}

	// For absolute paths, verify the cleaned path doesn't escape
	if filepath.IsAbs(path) {
		clean := filepath.Clean(path)
		// Count directory depth - compare original vs cleaned
		// If cleaned has fewer separators, upward traversal occurred
		origDepth := strings.Count(path, string(filepath.Separator))
		cleanDepth := strings.Count(clean, string(filepath.Separator))

		if cleanDepth < origDepth-1 {
			return fmt.Errorf("path traversal detected: %s (resolves to %s)", path, clean)
		}
	}

	return nil
}

// validateURL checks if a URL uses allowed schemes (http/https only)
func validateURL(urlStr string) error {
	// Only allow http and https schemes
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		return fmt.Errorf("URL must use http:// or https:// scheme, got: %s", urlStr)
	}
	return nil
}
