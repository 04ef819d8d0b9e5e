// Package collyfetcher implements insights.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/metrics"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffStep time.Duration
}

// Client fetches URLs through a Colly collector, retrying transient
// failures with linear backoff. Only a status 200 body is ever returned;
// everything else ends in insights.ErrUnavailable after the attempt budget
// is spent.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
	sleep         func(ctx context.Context, d time.Duration) error
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffStep == 0 {
		cfg.BackoffStep = 500 * time.Millisecond
	}

	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	return &Client{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
		sleep:         sleepContext,
	}
}

// Get fetches url, retrying up to MaxRetries extra attempts. A 200 response
// returns immediately; after the last failed attempt the error is
// insights.ErrUnavailable. Backoff before attempt n+1 is BackoffStep*n.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	attempts := c.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		body, status, err := c.attempt(ctx, url)
		if err == nil && status == http.StatusOK {
			metrics.ObserveFetchAttempt("ok")
			return body, nil
		}
		if err == nil {
			metrics.ObserveFetchAttempt("non_200")
			c.logger.Warn("non-200 response",
				zap.String("url", url),
				zap.Int("status", status),
				zap.Int("attempt", attempt),
			)
		} else {
			if ctx.Err() != nil {
				return nil, insights.ErrUnavailable
			}
			metrics.ObserveFetchAttempt("error")
			c.logger.Warn("fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if attempt < attempts {
			if serr := c.sleep(ctx, time.Duration(attempt)*c.cfg.BackoffStep); serr != nil {
				return nil, insights.ErrUnavailable
			}
		}
	}
	c.logger.Error("all fetch attempts exhausted",
		zap.String("url", url),
		zap.Int("attempts", attempts),
	)
	return nil, insights.ErrUnavailable
}

func (c *Client) attempt(ctx context.Context, url string) (body []byte, status int, err error) {
	collector := c.baseCollector.Clone()

	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, e error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = e
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case verr := <-done:
		if verr != nil {
			return nil, status, fmt.Errorf("visit failed: %w", verr)
		}
		if fetchErr != nil {
			return nil, status, fmt.Errorf("response failed: %w", fetchErr)
		}
		return body, status, nil
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
