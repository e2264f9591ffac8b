package ingest

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-insights-go/internal/logger"
)

// FetchExport downloads a transcript export over HTTP with exponential
// backoff. Server errors retry until the elapsed budget runs out; client
// errors are permanent. Returns the body and a file name inferred from the
// URL path so the caller can dispatch it like any uploaded file.
func FetchExport(rawURL string, timeout time.Duration) ([]byte, string, error) {
	log := logger.New().WithField("component", "ingest.fetch").WithField("url", rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "export.txt"
	}

	client := &http.Client{Timeout: timeout}
	var body []byte
	var lastErr error

	op := func() error {
		resp, err := client.Get(rawURL)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("export fetch failed")
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = err
			return err
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("request rejected: %d", resp.StatusCode)
			return backoff.Permanent(lastErr)
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = timeout
	if err := backoff.Retry(op, bo); err != nil {
		return nil, "", fmt.Errorf("fetch export: %w", lastErr)
	}
	log.WithField("bytes", len(body)).Info("export fetched")
	return body, name, nil
}
