package extractor

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// heroProducts harvests every homepage anchor pointing at a product page.
// Duplicates by resolved URL keep the first occurrence.
func (r *run) heroProducts(ctx context.Context) []insights.RawHeroProduct {
	doc := r.homepage(ctx)
	if doc == nil {
		return nil
	}

	var out []insights.RawHeroProduct
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/products/") {
			return
		}
		url := joinURL(r.baseURL, href)
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		out = append(out, insights.RawHeroProduct{
			Title: stripJoin(a, ""),
			URL:   url,
			Image: heroImage(a),
		})
	})
	return out
}

// heroImage resolves a product anchor's image: an img inside the anchor,
// then an img anywhere under the anchor's parent, then the next sibling if
// it is an img.
func heroImage(a *goquery.Selection) string {
	if src, ok := a.Find("img").First().Attr("src"); ok {
		return src
	}
	if src, ok := a.Parent().Find("img").First().Attr("src"); ok {
		return src
	}
	if next := a.Next(); next.Is("img") {
		if src, ok := next.Attr("src"); ok {
			return src
		}
	}
	return ""
}
