package httpclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/NataTusia/Haah-and-Cash/logger"
)

// Config holds shared outbound HTTP settings.
type Config struct {
	Timeout time.Duration
	// RedactQuery hides the query string in logs (API keys travel there).
	RedactQuery bool
}

// loggingRoundTripper logs every outbound call with a request id.
type loggingRoundTripper struct {
	inner       http.RoundTripper
	redactQuery bool
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	target := logURL(req, l.redactQuery)

	resp, err := l.inner.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		logger.ErrorWithFields("httpclient request failed", logger.Fields{
			"method":     req.Method,
			"url":        target,
			"duration":   duration.String(),
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, err
	}

	logger.DebugWithFields("httpclient request success", logger.Fields{
		"method":     req.Method,
		"url":        target,
		"status":     resp.StatusCode,
		"duration":   duration.String(),
		"request_id": requestID,
	})
	return resp, nil
}

// New builds an http.Client with logging. Timeout 0 means 10 seconds.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{inner: http.DefaultTransport, redactQuery: cfg.RedactQuery},
	}
}

func logURL(req *http.Request, redactQuery bool) string {
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	if !redactQuery && req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	return target
}
