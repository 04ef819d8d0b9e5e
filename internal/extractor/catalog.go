package extractor

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// productCatalog fetches <base>/products.json and returns its products
// array verbatim. An unreachable feed or malformed JSON yields an empty
// list; whether that means "not a storefront" is the orchestrator's call.
func (r *run) productCatalog(ctx context.Context) []insights.RawCatalogProduct {
	url := r.baseURL + "/products.json"
	body, err := r.fetcher.Get(ctx, url)
	if err != nil {
		return nil
	}
	r.catalogBody = body

	var feed struct {
		Products []insights.RawCatalogProduct `json:"products"`
	}
	if err := json.Unmarshal(body, &feed); err != nil {
		r.logger.Warn("malformed product feed",
			zap.String("url", url),
			zap.Error(err),
		)
		return nil
	}
	return feed.Products
}
