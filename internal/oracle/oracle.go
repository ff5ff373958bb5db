// Package oracle calls an OpenAI-compatible chat completion endpoint
// (OpenRouter in production) to turn market state into trade decisions.
// The model's output is untrusted text; everything is validated before it
// reaches the ledger.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"trading-agentv1/internal/metrics"
	"trading-agentv1/internal/model"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultModel       = "google/gemini-3-flash-preview"
	defaultTemperature = 0.1
)

// Config carries the oracle endpoint settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
}

// Client is a DecisionOracle over a chat-completion API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	prom        *metrics.Metrics
}

// NewClient builds the oracle client. prom may be nil.
func NewClient(cfg Config, prom *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL

	log.Printf("[oracle] using model %s via %s", cfg.Model, cfg.BaseURL)
	return &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		prom:        prom,
	}
}

// Decide asks the model for one decision per tracked coin. A transport
// failure, empty response, or malformed decision payload returns an error;
// the caller aborts the cycle and the ledger is never touched.
func (c *Client) Decide(ctx context.Context, req model.DecisionRequest) ([]model.TradeDecision, error) {
	raw, err := c.complete(ctx, positionManagerSystemPrompt, buildUserPrompt(req))
	if err != nil {
		return nil, err
	}

	decisions, err := ParseDecisions(raw)
	if err != nil {
		if c.prom != nil {
			c.prom.OracleErrors.Inc()
		}
		return nil, fmt.Errorf("oracle response: %w", err)
	}
	return decisions, nil
}

// Sentiment runs the market-regime analysis prompt over the serialized
// indicator data and returns the model's JSON verbatim (after fence
// stripping and a validity check).
func (c *Client) Sentiment(ctx context.Context, marketDataJSON string) (json.RawMessage, error) {
	raw, err := c.complete(ctx, sentimentSystemPrompt,
		fmt.Sprintf(sentimentUserPromptTemplate, marketDataJSON))
	if err != nil {
		return nil, err
	}

	clean := stripFences(raw)
	if !json.Valid([]byte(clean)) {
		if c.prom != nil {
			c.prom.OracleErrors.Inc()
		}
		return nil, fmt.Errorf("sentiment response is not valid JSON")
	}
	return json.RawMessage(clean), nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if c.prom != nil {
		c.prom.OracleDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if c.prom != nil {
			c.prom.OracleErrors.Inc()
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		if c.prom != nil {
			c.prom.OracleErrors.Inc()
		}
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
