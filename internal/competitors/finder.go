// Package competitors discovers competing storefronts through web search
// and confirms them by probing their product feeds.
package competitors

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/metrics"
)

const defaultSearchURL = "https://duckduckgo.com/html/?q="

var hrefPattern = regexp.MustCompile(`href="(https?://[^"]+)"`)

// InsightsFetcher runs a full extraction for one confirmed competitor.
type InsightsFetcher interface {
	FetchInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error)
}

// Config bounds the discovery pass.
type Config struct {
	// MaxCandidates caps how many search hits are probed.
	MaxCandidates int
	// MaxConfirmed caps how many confirmed storefronts get a full extraction.
	MaxConfirmed int
	// Concurrency bounds parallel candidate probes.
	Concurrency int
	// SearchURL overrides the search endpoint (primarily for testing).
	SearchURL string
}

// Competitor pairs a confirmed storefront with its extracted insights.
type Competitor struct {
	WebsiteURL string                 `json:"website_url"`
	Insights   insights.BrandInsights `json:"insights"`
}

// Finder searches for competitor candidates and extracts insights for the
// confirmed ones. Candidate probes run concurrently but confirmation keeps
// search-result order, so results are deterministic for a given response.
type Finder struct {
	cfg     Config
	fetcher insights.Fetcher
	service InsightsFetcher
	logger  *zap.Logger
}

// New builds a Finder.
func New(cfg Config, fetcher insights.Fetcher, service InsightsFetcher, logger *zap.Logger) *Finder {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 40
	}
	if cfg.MaxConfirmed <= 0 {
		cfg.MaxConfirmed = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	return &Finder{
		cfg:     cfg,
		fetcher: fetcher,
		service: service,
		logger:  logger,
	}
}

// FindCompetitors searches for storefronts similar to websiteURL, probes
// each candidate's products.json, and runs a full extraction for every
// confirmed storefront. Per-competitor extraction failures are logged and
// skipped, never fatal.
func (f *Finder) FindCompetitors(ctx context.Context, websiteURL string) ([]Competitor, error) {
	query := fmt.Sprintf("sites like %s OR %s competitors shopify", websiteURL, websiteURL)
	body, err := f.fetcher.Get(ctx, f.cfg.SearchURL+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("competitor search: %w", err)
	}

	candidates := f.candidates(body, websiteURL)
	confirmed := f.confirm(ctx, candidates)

	out := make([]Competitor, 0, len(confirmed))
	for _, candidate := range confirmed {
		ins, err := f.service.FetchInsights(ctx, candidate)
		if err != nil {
			f.logger.Warn("competitor extraction failed",
				zap.String("website_url", candidate),
				zap.Error(err),
			)
			continue
		}
		out = append(out, Competitor{WebsiteURL: candidate, Insights: ins})
	}
	return out, nil
}

// candidates extracts deduplicated base URLs from the search response,
// excluding the original site, capped at MaxCandidates.
func (f *Finder) candidates(body []byte, websiteURL string) []string {
	original := strings.TrimRight(websiteURL, "/")
	seen := make(map[string]struct{})
	var out []string
	for _, m := range hrefPattern.FindAllSubmatch(body, -1) {
		base := string(m[1])
		if i := strings.Index(base, "?"); i >= 0 {
			base = base[:i]
		}
		base = strings.TrimRight(base, "/")
		if base == original {
			continue
		}
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		out = append(out, base)
		if len(out) == f.cfg.MaxCandidates {
			break
		}
	}
	return out
}

// confirm probes candidate product feeds with bounded concurrency and
// returns up to MaxConfirmed storefronts in candidate order.
func (f *Finder) confirm(ctx context.Context, candidates []string) []string {
	results := make([]bool, len(candidates))
	sem := make(chan struct{}, f.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = f.probe(ctx, candidate)
		}(i, candidate)
	}
	wg.Wait()

	var confirmed []string
	for i, ok := range results {
		if !ok {
			continue
		}
		confirmed = append(confirmed, candidates[i])
		if len(confirmed) == f.cfg.MaxConfirmed {
			break
		}
	}
	return confirmed
}

// probe reports whether a candidate serves a product feed.
func (f *Finder) probe(ctx context.Context, candidate string) bool {
	body, err := f.fetcher.Get(ctx, candidate+"/products.json")
	if err != nil {
		metrics.ObserveCompetitorProbe("error")
		f.logger.Debug("competitor probe failed",
			zap.String("candidate", candidate),
			zap.Error(err),
		)
		return false
	}
	if !bytes.Contains(body, []byte("products")) {
		metrics.ObserveCompetitorProbe("rejected")
		return false
	}
	metrics.ObserveCompetitorProbe("confirmed")
	return true
}
