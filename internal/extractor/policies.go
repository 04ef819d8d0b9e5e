package extractor

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// policyPaths are the four well-known policy locations. All four are
// attempted independently; a path that fails contributes nothing.
var policyPaths = []struct {
	Type string
	Path string
}{
	{insights.PolicyPrivacy, "/policies/privacy-policy"},
	{insights.PolicyRefund, "/policies/refund-policy"},
	{insights.PolicyShipping, "/policies/shipping-policy"},
	{insights.PolicyTerms, "/policies/terms-of-service"},
}

// policies fetches each policy path and extracts the page's visible text,
// newline-joined. Partial policy sets are expected and valid.
func (r *run) policies(ctx context.Context) []insights.RawPolicy {
	var out []insights.RawPolicy
	for _, p := range policyPaths {
		url := r.baseURL + p.Path
		body, err := r.fetcher.Get(ctx, url)
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			r.logger.Warn("policy page parse failed",
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		out = append(out, insights.RawPolicy{
			Type:    p.Type,
			URL:     url,
			Content: stripJoin(doc.Selection, "\n"),
		})
	}
	return out
}
