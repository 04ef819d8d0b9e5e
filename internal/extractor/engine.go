// Package extractor implements the brand-insights extraction engine: eight
// independent best-effort heuristics over a storefront's well-known URLs,
// plus the normalization layer that maps their raw records into canonical
// entities.
package extractor

import (
	"bytes"
	"context"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// Engine runs the category extractors for one storefront at a time. The
// engine itself is stateless across runs; per-run state (the memoized
// homepage document) lives in a run value.
type Engine struct {
	fetcher insights.Fetcher
	logger  *zap.Logger
}

// New builds an Engine.
func New(fetcher insights.Fetcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{fetcher: fetcher, logger: logger}
}

// Extract runs all eight category extractors concurrently against baseURL
// and joins their results. Every category is fail-safe: a panic or parse
// failure in one leaves that category empty and never disturbs the others.
// baseURL must be scheme+host with no trailing slash.
func (e *Engine) Extract(ctx context.Context, baseURL string) insights.RawInsights {
	r := &run{
		baseURL: baseURL,
		fetcher: e.fetcher,
		logger:  e.logger,
	}

	var out insights.RawInsights
	tasks := []struct {
		name string
		fn   func()
	}{
		{"product_catalog", func() { out.Products = r.productCatalog(ctx) }},
		{"hero_products", func() { out.Hero = r.heroProducts(ctx) }},
		{"policies", func() { out.Policies = r.policies(ctx) }},
		{"faqs", func() { out.FAQs = r.faqs(ctx) }},
		{"social_handles", func() { out.Socials = r.socialHandles(ctx) }},
		{"contact_details", func() { out.Contacts = r.contactDetails(ctx) }},
		{"brand_text", func() { out.BrandText = r.brandText(ctx) }},
		{"important_links", func() { out.Links = r.importantLinks(ctx) }},
	}

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(name string, fn func()) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					e.logger.Error("category extractor panicked",
						zap.String("category", name),
						zap.String("base_url", baseURL),
						zap.Any("panic", rec),
					)
				}
			}()
			fn()
		}(t.name, t.fn)
	}
	wg.Wait()

	out.Documents = insights.RawDocuments{
		Homepage:     r.homeBody,
		ProductsJSON: r.catalogBody,
	}
	return out
}

// ExtractInsights runs Extract and normalizes the result in one call.
func (e *Engine) ExtractInsights(ctx context.Context, baseURL string) insights.BrandInsights {
	return Normalize(e.Extract(ctx, baseURL), baseURL)
}

// run holds the state of a single extraction run. The homepage document is
// fetched at most once and shared by every homepage-based extractor.
type run struct {
	baseURL string
	fetcher insights.Fetcher
	logger  *zap.Logger

	homeOnce sync.Once
	homeBody []byte
	homeDoc  *goquery.Document

	catalogBody []byte
}

// homepage returns the memoized homepage document, or nil when the
// storefront root could not be fetched or parsed.
func (r *run) homepage(ctx context.Context) *goquery.Document {
	r.homeOnce.Do(func() {
		body, err := r.fetcher.Get(ctx, r.baseURL)
		if err != nil {
			return
		}
		r.homeBody = body
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			r.logger.Warn("homepage parse failed",
				zap.String("base_url", r.baseURL),
				zap.Error(err),
			)
			return
		}
		r.homeDoc = doc
	})
	return r.homeDoc
}
