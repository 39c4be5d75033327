package jobstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
	"github.com/Taichi-iskw/audiorefresh/internal/logging"
)

// Config configures an HTTP job status client
type Config struct {
	BaseURL string
	Token   string // optional, sent as Bearer
	Timeout time.Duration
	Retries int
}

// httpClient implements Client against GET {base}/jobs/{id}
type httpClient struct {
	cfg         Config
	client      *http.Client
	logger      *slog.Logger
	backoffBase time.Duration
}

// NewHTTPClient creates a Client for one remote service
func NewHTTPClient(cfg Config, logger *slog.Logger) Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &httpClient{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.Timeout},
		logger:      logging.NewComponentLogger(logger, "jobstatus"),
		backoffBase: 500 * time.Millisecond,
	}
}

// QueryStatus fetches the job state, retrying transient failures with backoff
func (c *httpClient) QueryStatus(ctx context.Context, jobID string) (*Status, error) {
	if jobID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "job id is empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.logger.Debug("retrying job status query",
				logging.String(logging.FieldJobID, jobID),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, apperrors.Wrap(ctx.Err(), apperrors.CodeTransient, "job status query cancelled")
			case <-time.After(backoff):
			}
		}

		status, err := c.query(ctx, jobID)
		if err == nil {
			return status, nil
		}
		if !apperrors.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, apperrors.Wrap(lastErr, apperrors.CodeTransient,
		fmt.Sprintf("job %s: all %d retries exhausted", jobID, c.cfg.Retries))
}

// query performs a single status request
func (c *httpClient) query(ctx context.Context, jobID string) (*Status, error) {
	endpoint := c.cfg.BaseURL + "/jobs/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, "invalid job status endpoint")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "job status request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "failed to read job status response")
	}

	if err := classifyStatusCode(resp.StatusCode, body); err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		// Proxies occasionally answer 200 with an HTML page
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "failed to decode job status: "+truncate(body, 120))
	}
	switch status.State {
	case StateQueued, StateProcessing, StateDone, StateError:
	default:
		return nil, apperrors.New(apperrors.CodeTerminal, fmt.Sprintf("job %s has unknown status %q", jobID, status.State))
	}

	return &status, nil
}

// classifyStatusCode maps HTTP failures onto the error taxonomy
func classifyStatusCode(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.New(apperrors.CodeConfig, fmt.Sprintf("job status service rejected credentials (http %d)", code))
	case code == http.StatusNotFound || code == http.StatusGone || code == http.StatusBadRequest:
		return apperrors.New(apperrors.CodeTerminal, fmt.Sprintf("job status http %d: %s", code, truncate(body, 200)))
	case code == http.StatusTooManyRequests || code >= 500:
		return apperrors.New(apperrors.CodeTransient, fmt.Sprintf("job status server error %d: %s", code, truncate(body, 200)))
	default:
		return apperrors.New(apperrors.CodeExternal, fmt.Sprintf("job status http %d: %s", code, truncate(body, 200)))
	}
}

// backoff returns exponential backoff duration: base * 2^(attempt-1) + jitter.
func (c *httpClient) backoff(attempt int) time.Duration {
	delay := c.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}

// truncate returns the first n bytes of body as a string.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
