package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"shiftdesk/pkg/circuitbreaker"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/metrics"
)

// Model turns a prompt into raw model text.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var errEmptyResponse = errors.New("model returned an empty response")

// Gemini is the genai backed Model. Replies are requested as JSON.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewGemini(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	bc := circuitbreaker.DefaultConfig()
	bc.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		breaker: circuitbreaker.NewCircuitBreaker("gemini", bc),
		logger:  logger,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var text string
	err := g.breaker.Execute(func() error {
		start := time.Now()
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			metrics.RecordUpstreamCall("gemini", "error", time.Since(start))
			return err
		}
		metrics.RecordUpstreamCall("gemini", "ok", time.Since(start))

		text = resp.Text()
		if text == "" {
			return errEmptyResponse
		}
		return nil
	})
	if err != nil {
		g.logger.Error("Gemini generate failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return text, nil
}
