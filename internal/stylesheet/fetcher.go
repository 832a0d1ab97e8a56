package stylesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	shellerrors "webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
)

const maxStylesheetSize = 2 << 20

// Fetcher downloads the optional custom stylesheet
type Fetcher struct {
	collector *colly.Collector
	log       logging.Logger
}

// NewFetcher creates a Fetcher. A zero timeout keeps colly's default.
func NewFetcher(userAgent string, timeout time.Duration, log logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NewDefaultLogger()
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxStylesheetSize),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	return &Fetcher{
		collector: c,
		log:       log,
	}
}

// Fetch returns the stylesheet at url, or "" when url is empty or the fetch
// fails for any reason. Failures are logged, never returned.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	start := time.Now()
	css, err := f.fetch(ctx, url)
	if err != nil {
		f.log.Warn("Custom stylesheet unavailable, continuing without it",
			"url", url,
			"error_code", shellerrors.CodeOf(err).String(),
			"error", err)
		return ""
	}

	logging.LogOperation(f.log, "stylesheet_fetch", time.Since(start), map[string]interface{}{
		"url":   url,
		"bytes": len(css),
	})
	return css
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	const op = "stylesheet.Fetch"
	errCtx := map[string]string{"url": url}

	// callbacks are per request, so work on a clone
	c := f.collector.Clone()
	c.Context = ctx

	var body string
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode > 299 {
			fetchErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("unexpected status %d: %v", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr == nil {
		if err := ctx.Err(); err != nil {
			fetchErr = err
		}
	}

	if fetchErr != nil {
		return "", shellerrors.NewWithContext(op, fetchErr, shellerrors.ErrCodeFetchFailure, errCtx)
	}
	return body, nil
}
