package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/Taichi-iskw/audiorefresh/internal/errors"
)

// maxTranscriptSize bounds a single transcript download
const maxTranscriptSize = 64 << 20

// HTTPConfig configures an object store reachable over HTTP
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// httpFetcher implements Fetcher with GET {base}/{key}
type httpFetcher struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPFetcher creates a Fetcher backed by an HTTP object store
func NewHTTPFetcher(cfg HTTPConfig) Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &httpFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch downloads the transcript stored under key
func (f *httpFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperrors.New(apperrors.CodeTerminal, "transcript key is empty")
	}

	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+"/"+strings.Join(segments, "/"), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, "invalid transcript store URL")
	}
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "transcript download failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("transcript %s not found", key))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.New(apperrors.CodeAccessDenied, fmt.Sprintf("access to transcript %s denied (http %d)", key, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, apperrors.New(apperrors.CodeTransient, fmt.Sprintf("transcript store returned http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptSize+1))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTransient, "failed to read transcript")
	}
	if len(body) > maxTranscriptSize {
		return nil, apperrors.New(apperrors.CodeTerminal, fmt.Sprintf("transcript %s exceeds %d bytes", key, maxTranscriptSize))
	}
	return body, nil
}
