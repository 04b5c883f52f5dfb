// Package llmclient implements the LLM fallback matcher's remote
// classification call: a pooled HTTP client bounded
// by a token-bucket rate limiter, a fixed prompt built from the active
// categories, and tolerant parsing of OpenAI-style, Anthropic-style, and
// generic chat-completion response shapes.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tmc/langchaingo/prompts"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/intentd/internal/logging"
)

// Sentinel is the literal string the LLM returns when no category fits.
// It is part of the wire contract with the fallback controller and must be
// preserved byte-for-byte.
const Sentinel = "LLM无法匹配"

// systemPrompt is fixed framing text, never derived from tenant data.
const systemPrompt = "You are an intent classification assistant. Respond only with valid JSON."

// instructionTemplate renders the per-request category listing into the
// fixed instruction block. {{.Categories}} is pre-formatted by the caller
// (one "CODE: name - description" line per active category, priority
// descending) so the template itself stays purely structural.
const instructionTemplate = `Classify the user's utterance into exactly one of the following intent categories:

{{.Categories}}

Respond with JSON only, of the form {"intent": "<code>", "confidence": <0..1>}.
If none of the categories fit, respond with exactly {"intent":"` + Sentinel + `","confidence":0.0}.

User utterance: {{.Text}}`

var ErrMissingConfig = errors.New("llmclient: api key or base url not configured")

// Config configures a Client.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	RequestTimeout     time.Duration // default 10s, hard ceiling 30s
	RateLimitPerSecond float64       // 0 disables the limiter
}

// Classification is the LLM's parsed JSON response.
type Classification struct {
	Intent     string
	Confidence float64
}

// Client is the pooled HTTP transport for LLM classification calls.
type Client struct {
	cfg        Config
	httpClient *http.Client
	anthropic  *anthropic.Client // used only for the startup health probe
	limiter    *rate.Limiter
	template   prompts.PromptTemplate
	logger     *logging.Logger

	connected bool // recorded at startup, never gates serving
}

// NewClient builds a Client. A missing API key or base URL is not an
// error here — the matcher degrades to the sentinel per request instead.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), int(cfg.RateLimitPerSecond)+1)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
		template: prompts.NewPromptTemplate(
			instructionTemplate,
			[]string{"Categories", "Text"},
		),
	}

	if cfg.APIKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		client := anthropic.NewClient(opts...)
		c.anthropic = &client
	}

	return c
}

// WarmUp performs a minimal health probe: record
// connection status, but never refuse to start.
func (c *Client) WarmUp(ctx context.Context) {
	if c.anthropic == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.anthropic.Models.List(probeCtx, anthropic.ModelListParams{})
	c.connected = err == nil
	if c.logger != nil {
		if err != nil {
			c.logger.Warn(ctx, "llmclient: health probe failed", zap.Error(err))
		} else {
			c.logger.Info(ctx, "llmclient: health probe ok")
		}
	}
}

// Connected reports the outcome of the last WarmUp call.
func (c *Client) Connected() bool { return c.connected }

// CategoryListing formats active categories as "CODE: name - description"
// lines, ordered by priority descending, for the prompt template.
type CategoryListing struct {
	Code        string
	Name        string
	Description string
	Priority    int
}

// Classify builds the fixed-instruction prompt for the given categories
// and text, calls the configured chat-completion endpoint, and parses the
// response. It returns an error only for configuration problems
// (ErrMissingConfig: no API key/base URL) and for transport failures (the
// request could not be sent or no response arrived), so the Fallback
// Controller can distinguish llm_error reason codes; every other failure
// (HTTP error status, unparseable response) produces the sentinel with a
// nil error.
func (c *Client) Classify(ctx context.Context, categories []CategoryListing, text string) (Classification, error) {
	if c.cfg.APIKey == "" || c.cfg.BaseURL == "" {
		return sentinelResult(), ErrMissingConfig
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return sentinelResult(), nil
		}
	}

	var listing strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&listing, "%s: %s - %s\n", cat.Code, cat.Name, cat.Description)
	}

	userPrompt, err := c.template.Format(map[string]any{
		"Categories": listing.String(),
		"Text":       text,
	})
	if err != nil {
		return sentinelResult(), nil
	}

	body, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": 0.1,
		"max_tokens":  100,
	})
	if err != nil {
		return sentinelResult(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return sentinelResult(), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn(ctx, "llmclient: request failed", zap.Error(err))
		}
		return sentinelResult(), fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return sentinelResult(), nil
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return sentinelResult(), nil
	}

	content, ok := extractContent(raw)
	if !ok {
		return sentinelResult(), nil
	}

	result, ok := parseClassification(content)
	if !ok {
		return sentinelResult(), nil
	}

	valid := false
	for _, cat := range categories {
		if cat.Code == result.Intent {
			valid = true
			break
		}
	}
	if !valid {
		return sentinelResult(), nil
	}

	if result.Confidence > 0.95 {
		result.Confidence = 0.95
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	return result, nil
}

func sentinelResult() Classification {
	return Classification{Intent: Sentinel, Confidence: 0.0}
}

// extractContent unwraps the three accepted response shapes:
// OpenAI-style choices[0].message.content, Anthropic-style content, or a
// generic message.content.
func extractContent(raw map[string]any) (string, bool) {
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if msg, ok := choice["message"].(map[string]any); ok {
				if s, ok := msg["content"].(string); ok {
					return s, true
				}
			}
		}
	}
	if content, ok := raw["content"].(string); ok {
		return content, true
	}
	if blocks, ok := raw["content"].([]any); ok && len(blocks) > 0 {
		if block, ok := blocks[0].(map[string]any); ok {
			if s, ok := block["text"].(string); ok {
				return s, true
			}
		}
	}
	if msg, ok := raw["message"].(map[string]any); ok {
		if s, ok := msg["content"].(string); ok {
			return s, true
		}
	}
	return "", false
}

// parseClassification strips markdown code fences and parses the JSON
// {"intent": ..., "confidence": ...} payload.
func parseClassification(content string) (Classification, bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload struct {
		Intent     string      `json:"intent"`
		Confidence json.Number `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Classification{}, false
	}
	if payload.Intent == "" {
		return Classification{}, false
	}
	conf, err := strconv.ParseFloat(payload.Confidence.String(), 64)
	if err != nil {
		conf = 0
	}
	return Classification{Intent: payload.Intent, Confidence: conf}, true
}

