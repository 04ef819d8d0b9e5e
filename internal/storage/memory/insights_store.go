// Package memory provides an in-process insights store for development
// and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// InsightsStore keeps brand aggregates in a map keyed by website URL. It
// applies the same product and FAQ query semantics as the Postgres store.
type InsightsStore struct {
	mu     sync.RWMutex
	brands map[string]insights.BrandInsights
}

// NewInsightsStore creates an empty store.
func NewInsightsStore() *InsightsStore {
	return &InsightsStore{brands: make(map[string]insights.BrandInsights)}
}

// ReplaceBrand stores a deep copy of the aggregate under the website URL.
func (s *InsightsStore) ReplaceBrand(_ context.Context, websiteURL string, ins insights.BrandInsights) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands[websiteURL] = copyInsights(ins)
	return nil
}

// GetInsights returns the stored aggregate with product and FAQ filters
// applied. A limit of zero means no limit.
func (s *InsightsStore) GetInsights(
	_ context.Context,
	websiteURL string,
	products insights.ProductQuery,
	faqs insights.FAQQuery,
) (insights.BrandInsights, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ins, ok := s.brands[websiteURL]
	if !ok {
		return insights.BrandInsights{}, insights.ErrBrandNotFound
	}
	out := copyInsights(ins)
	out.ProductCatalog = filterProducts(out.ProductCatalog, products)
	out.FAQs = filterFAQs(out.FAQs, faqs)
	return out, nil
}

func filterProducts(in []insights.Product, q insights.ProductQuery) []insights.Product {
	matched := make([]insights.Product, 0, len(in))
	needle := strings.ToLower(q.Title)
	for _, p := range in {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		matched = append(matched, p)
	}
	return paginate(matched, q.Limit, q.Offset)
}

func filterFAQs(in []insights.FAQ, q insights.FAQQuery) []insights.FAQ {
	matched := make([]insights.FAQ, 0, len(in))
	needle := strings.ToLower(q.Query)
	for _, f := range in {
		if needle != "" &&
			!strings.Contains(strings.ToLower(f.Question), needle) &&
			!strings.Contains(strings.ToLower(f.Answer), needle) {
			continue
		}
		matched = append(matched, f)
	}
	return paginate(matched, q.Limit, q.Offset)
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

func copyInsights(ins insights.BrandInsights) insights.BrandInsights {
	out := insights.BrandInsights{
		ProductCatalog: make([]insights.Product, len(ins.ProductCatalog)),
		HeroProducts:   make([]insights.Product, len(ins.HeroProducts)),
		Policies:       append([]insights.Policy(nil), ins.Policies...),
		FAQs:           append([]insights.FAQ(nil), ins.FAQs...),
		SocialHandles:  append([]insights.SocialHandle(nil), ins.SocialHandles...),
		ContactDetails: append([]insights.ContactDetail(nil), ins.ContactDetails...),
		ImportantLinks: append([]insights.ImportantLink(nil), ins.ImportantLinks...),
	}
	for i, p := range ins.ProductCatalog {
		out.ProductCatalog[i] = copyProduct(p)
	}
	for i, p := range ins.HeroProducts {
		out.HeroProducts[i] = copyProduct(p)
	}
	out.BrandText = copyStr(ins.BrandText)
	return out
}

func copyProduct(p insights.Product) insights.Product {
	return insights.Product{
		ID:          copyStr(p.ID),
		Title:       p.Title,
		URL:         copyStr(p.URL),
		Image:       copyStr(p.Image),
		Price:       copyStr(p.Price),
		Description: copyStr(p.Description),
	}
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
