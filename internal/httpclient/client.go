package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"billdesk/internal/common"
	"billdesk/internal/logger"

	"github.com/hashicorp/go-retryablehttp"
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// RetryingClient retries connection errors, 429 and 5xx responses with
// exponential backoff. Other 4xx responses are returned immediately.
type RetryingClient struct {
	client *retryablehttp.Client
}

func NewClient(cfg ClientConfig, log *logger.Logger) Client {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.HTTPClient.Timeout = timeout
	client.Logger = leveledLogger{log: log}
	// Hand the last response back instead of a generic "giving up" error.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &RetryingClient{client: client}
}

// Send makes an HTTP request and returns the response
func (c *RetryingClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var body any
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, common.WithError(err).
			WithHint("Please check the request payload").
			Mark(common.ErrInternal)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, common.WithError(err).
			WithHint("The upstream service could not be reached").
			Mark(common.ErrBadGateway)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.WithError(err).
			WithHint("The upstream service sent an unreadable response").
			Mark(common.ErrBadGateway)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	// Return HTTP error for non-2xx responses
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}

// leveledLogger adapts the zap logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log *logger.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}
