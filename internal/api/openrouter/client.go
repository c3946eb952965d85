package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Alias1177/Analyst/internal/platform/http"
	"github.com/Alias1177/Analyst/models"
)

// Client calls the OpenRouter chat-completion endpoint to turn an indicator
// snapshot into a natural-language explanation. Any failure degrades to a
// fallback text carrying the raw indicator values; Explain never fails hard.
type Client struct {
	httpClient  *platformhttp.Client
	apiKey      string
	model       string
	apiURL      string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      zerolog.Logger
}

// Options holds settings for creating a new Client.
type Options struct {
	APIKey          string
	Model           string
	APIURL          string
	Temperature     float64
	MaxTokens       int
	RequestTimeout  time.Duration
	MaxRetryElapsed time.Duration
}

// NewClient creates a new OpenRouter client
func NewClient(opts Options) *Client {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	return &Client{
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:         opts.RequestTimeout,
			MaxRetryElapsed: opts.MaxRetryElapsed,
		}),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		apiURL:      opts.APIURL,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		timeout:     opts.RequestTimeout,
		logger:      log.With().Str("component", "openrouter_client").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Explain sends the instruction pair to OpenRouter and returns the first
// completion's content. With no API key configured it short-circuits to a
// degraded result without touching the network.
func (c *Client) Explain(ctx context.Context, rec models.IndicatorRecord, pair models.PromptPair) models.ExplanationResult {
	if c.apiKey == "" {
		return degraded(models.DegradedNoCredentials,
			"⚠️ <b>LLM unavailable</b> — OPENROUTER_API_KEY is not set.", rec)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: pair.System},
			{Role: "user", Content: pair.User},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode chat request")
		return degraded(models.DegradedTransport,
			"⚠️ <b>LLM request failed</b> — could not reach the explanation service.", rec)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to create chat request")
		return degraded(models.DegradedTransport,
			"⚠️ <b>LLM request failed</b> — could not reach the explanation service.", rec)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		var statusErr *platformhttp.HTTPStatusError
		if errors.As(err, &statusErr) {
			c.logger.Error().Int("status", statusErr.StatusCode).Msg("OpenRouter returned an error status")
			return degraded(models.DegradedUpstreamStatus,
				"⚠️ <b>LLM request failed</b> — the explanation service returned an error.", rec)
		}
		c.logger.Error().Err(err).Msg("OpenRouter request failed")
		return degraded(models.DegradedTransport,
			"⚠️ <b>LLM request failed</b> — could not reach the explanation service.", rec)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to read OpenRouter response")
		return degraded(models.DegradedTransport,
			"⚠️ <b>LLM request failed</b> — could not reach the explanation service.", rec)
	}

	var data chatResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Failed to parse OpenRouter response")
		return degraded(models.DegradedMalformedResponse,
			"⚠️ <b>LLM request failed</b> — unexpected response from the explanation service.", rec)
	}
	if len(data.Choices) == 0 || data.Choices[0].Message.Content == "" {
		c.logger.Warn().Msg("OpenRouter returned no completion content")
		return degraded(models.DegradedMalformedResponse,
			"⚠️ <b>LLM request failed</b> — unexpected response from the explanation service.", rec)
	}

	return models.ExplanationResult{Text: data.Choices[0].Message.Content}
}

// degraded builds the fallback text so the user still receives a minimal
// signal when narrative generation is unavailable.
func degraded(reason models.DegradedReason, headline string, rec models.IndicatorRecord) models.ExplanationResult {
	return models.ExplanationResult{
		Text: fmt.Sprintf("%s\n\n📊 RSI: %.1f | Price: %.4f | Sentiment: %s",
			headline, rec.RSI, rec.Price, rec.SentimentLabel),
		Degraded: true,
		Reason:   reason,
	}
}
