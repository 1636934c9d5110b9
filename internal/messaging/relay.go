package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shiftdesk/pkg/circuitbreaker"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/metrics"
)

var ErrRelayNotConfigured = errors.New("message relay base url is not configured")

// RelayError is a non-2xx answer from the relay.
type RelayError struct {
	StatusCode int
	Body       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed later.
func (e *RelayError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Sender delivers one text to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient, text string) error
}

// RelayClient posts messages to the relay's /send_message/ endpoint.
type RelayClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewRelayClient(cfg config.RelayConfig, logger *zap.Logger) *RelayClient {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	bc := circuitbreaker.DefaultConfig()
	bc.IsFailure = func(err error) bool {
		var re *RelayError
		if errors.As(err, &re) {
			return re.Temporary()
		}
		return !errors.Is(err, context.Canceled)
	}
	bc.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("Circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &RelayClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		breaker: circuitbreaker.NewCircuitBreaker("relay", bc),
		logger:  logger,
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (c *RelayClient) Send(ctx context.Context, recipient, text string) error {
	if c.baseURL == "" {
		return ErrRelayNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	return c.breaker.Execute(func() error {
		return c.post(ctx, recipient, text)
	})
}

func (c *RelayClient) post(ctx context.Context, recipient, text string) error {
	b, err := json.Marshal(sendRequest{Recipient: recipient, Message: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send_message/", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall("relay", "error", time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamCall("relay", strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RelayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
