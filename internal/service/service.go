// Package service orchestrates extraction runs: fetch, normalize, persist,
// and the best-effort side effects (archive, cache, publish).
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/extractor"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
	"github.com/damndeepesh/shopify-insights-fetcher/internal/metrics"
)

// ErrNotStorefront marks a reachable site whose product feed came back
// empty. The API maps it to a 401 response.
var ErrNotStorefront = errors.New("website is not a storefront")

// Extractor produces the raw insights for one storefront.
type Extractor interface {
	Extract(ctx context.Context, baseURL string) insights.RawInsights
}

// Config carries orchestration knobs.
type Config struct {
	// ArchivePrefix is prepended to every archived object path.
	ArchivePrefix string
	// Topic is the Pub/Sub topic for run-completed events.
	Topic string
}

// Service runs extractions end to end. The store is required; cache,
// archive, and publisher are optional and strictly best-effort, so a Redis
// or GCS outage never fails a run.
type Service struct {
	cfg       Config
	extractor Extractor
	store     insights.InsightsStore
	cache     insights.SnapshotCache
	archive   insights.BlobStore
	publisher insights.Publisher
	hasher    insights.Hasher
	clock     insights.Clock
	ids       insights.IDGenerator
	logger    *zap.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache attaches a snapshot cache.
func WithCache(cache insights.SnapshotCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithArchive attaches a blob store for raw documents.
func WithArchive(archive insights.BlobStore) Option {
	return func(s *Service) { s.archive = archive }
}

// WithPublisher attaches a run-event publisher.
func WithPublisher(pub insights.Publisher) Option {
	return func(s *Service) { s.publisher = pub }
}

// New builds a Service.
func New(
	cfg Config,
	ext Extractor,
	store insights.InsightsStore,
	hasher insights.Hasher,
	clock insights.Clock,
	ids insights.IDGenerator,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:       cfg,
		extractor: ext,
		store:     store,
		hasher:    hasher,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchInsights extracts, normalizes, and persists the insights for a
// storefront URL, then fires the best-effort side effects. An empty product
// feed means the site is not treated as a storefront and nothing is stored.
func (s *Service) FetchInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error) {
	base := strings.TrimRight(websiteURL, "/")
	started := s.clock.Now()

	raw := s.extractor.Extract(ctx, base)
	if len(raw.Products) == 0 {
		metrics.ObserveRun(base, "not_storefront", s.clock.Now().Sub(started))
		return insights.BrandInsights{}, ErrNotStorefront
	}

	ins := extractor.Normalize(raw, base)

	if err := s.store.ReplaceBrand(ctx, base, ins); err != nil {
		metrics.ObserveRun(base, "store_error", s.clock.Now().Sub(started))
		return insights.BrandInsights{}, fmt.Errorf("persist insights: %w", err)
	}

	runID, err := s.ids.NewID()
	if err != nil {
		s.logger.Warn("run id generation failed", zap.Error(err))
		runID = "unknown"
	}

	record := insights.RunRecord{
		RunID:       runID,
		WebsiteURL:  base,
		CompletedAt: s.clock.Now(),
		Products:    len(ins.ProductCatalog),
		HeroCount:   len(ins.HeroProducts),
		Policies:    len(ins.Policies),
		FAQs:        len(ins.FAQs),
		Socials:     len(ins.SocialHandles),
		Contacts:    len(ins.ContactDetails),
		Links:       len(ins.ImportantLinks),
	}
	record.HomePageURI = s.archiveDocument(ctx, runID, "homepage", "text/html; charset=utf-8", raw.Documents.Homepage)
	record.CatalogURI = s.archiveDocument(ctx, runID, "products", "application/json", raw.Documents.ProductsJSON)

	if s.cache != nil {
		if err := s.cache.SetInsights(ctx, base, ins); err != nil {
			s.logger.Warn("snapshot cache write failed",
				zap.String("website_url", base),
				zap.Error(err),
			)
		}
	}

	if s.publisher != nil && s.cfg.Topic != "" {
		if _, err := s.publisher.Publish(ctx, s.cfg.Topic, record); err != nil {
			s.logger.Warn("run event publish failed",
				zap.String("website_url", base),
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}

	s.observeRecords(ins)
	metrics.ObserveRun(base, "success", s.clock.Now().Sub(started))
	s.logger.Info("extraction run completed",
		zap.String("website_url", base),
		zap.String("run_id", runID),
		zap.Int("products", record.Products),
		zap.Int("faqs", record.FAQs),
	)
	return ins, nil
}

// GetStoredInsights reads previously persisted insights. A fully default
// query is answered from the snapshot cache when possible; filtered or
// paginated reads always hit the store.
func (s *Service) GetStoredInsights(
	ctx context.Context,
	websiteURL string,
	products insights.ProductQuery,
	faqs insights.FAQQuery,
) (insights.BrandInsights, error) {
	base := strings.TrimRight(websiteURL, "/")

	if s.cache != nil && defaultQueries(products, faqs) {
		cached, ok, err := s.cache.GetInsights(ctx, base)
		if err != nil {
			s.logger.Warn("snapshot cache read failed",
				zap.String("website_url", base),
				zap.Error(err),
			)
		} else if ok {
			cached.ProductCatalog = truncateProducts(cached.ProductCatalog, products.Limit)
			cached.FAQs = truncateFAQs(cached.FAQs, faqs.Limit)
			return cached, nil
		}
	}

	ins, err := s.store.GetInsights(ctx, base, products, faqs)
	if err != nil {
		if errors.Is(err, insights.ErrBrandNotFound) {
			return insights.BrandInsights{}, err
		}
		return insights.BrandInsights{}, fmt.Errorf("read insights: %w", err)
	}
	return ins, nil
}

// archiveDocument writes one raw document and returns its URI, or "" when
// archiving is disabled, the document is absent, or the write failed.
func (s *Service) archiveDocument(ctx context.Context, runID, name, contentType string, body []byte) string {
	if s.archive == nil || len(body) == 0 {
		return ""
	}
	digest, err := s.hasher.Hash(body)
	if err != nil {
		s.logger.Warn("document hash failed", zap.String("document", name), zap.Error(err))
		return ""
	}
	ext := "html"
	if contentType == "application/json" {
		ext = "json"
	}
	path := fmt.Sprintf("%s/%s/%s-%s.%s", s.cfg.ArchivePrefix, runID, name, digest[:12], ext)
	uri, err := s.archive.PutObject(ctx, path, contentType, body)
	if err != nil {
		s.logger.Warn("document archive failed",
			zap.String("document", name),
			zap.String("path", path),
			zap.Error(err),
		)
		return ""
	}
	return uri
}

func (s *Service) observeRecords(ins insights.BrandInsights) {
	metrics.ObserveRecords("product_catalog", len(ins.ProductCatalog))
	metrics.ObserveRecords("hero_products", len(ins.HeroProducts))
	metrics.ObserveRecords("policies", len(ins.Policies))
	metrics.ObserveRecords("faqs", len(ins.FAQs))
	metrics.ObserveRecords("social_handles", len(ins.SocialHandles))
	metrics.ObserveRecords("contact_details", len(ins.ContactDetails))
	metrics.ObserveRecords("important_links", len(ins.ImportantLinks))
}

func defaultQueries(products insights.ProductQuery, faqs insights.FAQQuery) bool {
	return products.Title == "" && products.Offset == 0 &&
		faqs.Query == "" && faqs.Offset == 0
}

func truncateProducts(in []insights.Product, limit int) []insights.Product {
	if limit > 0 && limit < len(in) {
		return in[:limit]
	}
	return in
}

func truncateFAQs(in []insights.FAQ, limit int) []insights.FAQ {
	if limit > 0 && limit < len(in) {
		return in[:limit]
	}
	return in
}
