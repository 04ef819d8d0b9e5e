package extractor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

const testBase = "https://shop.example.com"

// fakeFetcher serves canned bodies keyed by URL and counts calls.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	body, ok := f.pages[url]
	if !ok {
		return nil, insights.ErrUnavailable
	}
	return []byte(body), nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

const testHomepage = `<!doctype html>
<html>
<head><meta name="description" content="Great products"></head>
<body>
  <div id="hero">
    <a href="/products/classic-tee">Classic Tee<img src="/img/tee.png"></a>
    <a href="https://shop.example.com/products/mug">Mug</a>
    <a href="/products/classic-tee">Classic Tee again</a>
  </div>
  <footer>
    <a href="https://instagram.com/brand">IG</a>
    <a href="https://instagram.com/brand">IG2</a>
    <a href="https://facebook.com/brand">FB</a>
    <a href="/pages/contact">Contact Us</a>
    <a href="/blogs/news">Our Blog</a>
    <p>Write to support@brand.example or call +1 555-123-4567.</p>
  </footer>
</body>
</html>`

const testCatalog = `{"products": [
  {"id": 1, "title": "Tee", "handle": "tee",
   "variants": [{"price": "19.99"}],
   "image": {"src": "http://x/img.png"},
   "body_html": "<p>desc</p>"},
  {"id": 2, "title": "Mug", "handle": "mug",
   "variants": [{"price": 7.5, "image_id": 42}],
   "images": [{"id": 42, "src": "http://x/mug.png"}],
   "body_html": ""}
]}`

func storefrontPages() map[string]string {
	return map[string]string{
		testBase:                   testHomepage,
		testBase + "/products.json": testCatalog,
		testBase + "/policies/refund-policy":    `<html><body><h1>Refund</h1><p>30 days.</p></body></html>`,
		testBase + "/policies/shipping-policy":  `<html><body><p>Ships worldwide.</p></body></html>`,
		testBase + "/policies/terms-of-service": `<html><body><p>Be nice.</p></body></html>`,
		testBase + "/faq": `<html><body>
			<details><summary>Do you ship?</summary><p>Yes, worldwide.</p></details>
		</body></html>`,
		testBase + "/faqs": `<html><body><details><summary>Unreached?</summary>No.</details></body></html>`,
	}
}

func TestExtractAssemblesAllCategories(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(storefrontPages())
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.Len(t, raw.Products, 2)
	require.Equal(t, "Tee", raw.Products[0].Title)

	require.Len(t, raw.Hero, 2)
	require.Equal(t, "Classic Tee", raw.Hero[0].Title)
	require.Equal(t, testBase+"/products/classic-tee", raw.Hero[0].URL)
	require.Equal(t, "/img/tee.png", raw.Hero[0].Image)
	require.Equal(t, "https://shop.example.com/products/mug", raw.Hero[1].URL)

	require.Len(t, raw.Policies, 3)
	for _, p := range raw.Policies {
		require.NotEqual(t, insights.PolicyPrivacy, p.Type)
	}
	require.Equal(t, insights.PolicyRefund, raw.Policies[0].Type)
	require.Equal(t, "Refund\n30 days.", raw.Policies[0].Content)

	require.Equal(t, []insights.RawFAQ{
		{Question: "Do you ship?", Answer: "Yes, worldwide."},
	}, raw.FAQs)

	require.Len(t, raw.Socials, 2)
	require.Equal(t, "instagram", raw.Socials[0].Handle.Platform)
	require.Equal(t, "https://instagram.com/brand", raw.Socials[0].Handle.URL)
	require.Equal(t, "facebook", raw.Socials[1].Handle.Platform)

	require.Len(t, raw.Contacts, 2)
	require.Equal(t, insights.ContactDetail{Type: "email", Value: "support@brand.example"}, *raw.Contacts[0].Detail)
	require.Equal(t, insights.ContactPhone, raw.Contacts[1].Detail.Type)

	require.NotNil(t, raw.BrandText)
	require.Equal(t, "Great products", *raw.BrandText)

	require.Len(t, raw.Links, 2)
	require.Equal(t, "Contact Us", raw.Links[0].Link.Name)
	require.Equal(t, testBase+"/pages/contact", raw.Links[0].Link.URL)

	require.Equal(t, []byte(testHomepage), raw.Documents.Homepage)
	require.Equal(t, []byte(testCatalog), raw.Documents.ProductsJSON)
}

func TestExtractFetchesHomepageExactlyOnce(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(storefrontPages())
	engine := New(fetcher, zap.NewNop())
	engine.Extract(context.Background(), testBase)

	require.Equal(t, 1, fetcher.callCount(testBase))
}

func TestExtractFAQFallbackStopsAtFirstYieldingPath(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(storefrontPages())
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.NotEmpty(t, raw.FAQs)
	require.Equal(t, 1, fetcher.callCount(testBase+"/faq"))
	require.Equal(t, 0, fetcher.callCount(testBase+"/faqs"))
}

func TestExtractFAQSkipsFetchedPathThatYieldsNothing(t *testing.T) {
	t.Parallel()

	pages := storefrontPages()
	pages[testBase+"/pages/faq"] = `<html><body><p>nothing structured here</p></body></html>`
	fetcher := newFakeFetcher(pages)
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.Equal(t, 1, fetcher.callCount(testBase+"/pages/faq"))
	require.Equal(t, []insights.RawFAQ{
		{Question: "Do you ship?", Answer: "Yes, worldwide."},
	}, raw.FAQs)
}

func TestExtractUnreachableSiteYieldsEmptyAggregate(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(map[string]string{})
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.Empty(t, raw.Products)
	require.Empty(t, raw.Hero)
	require.Empty(t, raw.Policies)
	require.Empty(t, raw.FAQs)
	require.Empty(t, raw.Socials)
	require.Empty(t, raw.Contacts)
	require.Nil(t, raw.BrandText)
	require.Empty(t, raw.Links)
}

func TestExtractMalformedCatalogIsEmptyNotFatal(t *testing.T) {
	t.Parallel()

	pages := storefrontPages()
	pages[testBase+"/products.json"] = `{"products": not json`
	fetcher := newFakeFetcher(pages)
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.Empty(t, raw.Products)
	// Sibling categories are unaffected.
	require.NotEmpty(t, raw.Hero)
	require.NotEmpty(t, raw.Policies)
}

func TestBrandTextPrefersAboutElementOverMeta(t *testing.T) {
	t.Parallel()

	pages := storefrontPages()
	pages[testBase] = `<html>
		<head><meta name="description" content="meta text"></head>
		<body><div class="about"><p>We make fine goods.</p></div></body>
	</html>`
	fetcher := newFakeFetcher(pages)
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.NotNil(t, raw.BrandText)
	require.Equal(t, "We make fine goods.", *raw.BrandText)
}

func TestFAQClassItemsAndHeadingPairsConcatenate(t *testing.T) {
	t.Parallel()

	// The faq-item block also matches the heading-pair strategy, so it
	// contributes one record per strategy. In-page strategies never dedup.
	pages := storefrontPages()
	pages[testBase+"/pages/faq"] = `<html><body>
		<div class="faq-item"><h3>Returns?</h3><p>Within 30 days.</p></div>
		<h2>Warranty?</h2><p>One year.</p>
	</body></html>`
	fetcher := newFakeFetcher(pages)
	engine := New(fetcher, zap.NewNop())
	raw := engine.Extract(context.Background(), testBase)

	require.Equal(t, []insights.RawFAQ{
		{Question: "Returns?", Answer: "Within 30 days."},
		{Question: "Returns?", Answer: "Within 30 days."},
		{Question: "Warranty?", Answer: "One year."},
	}, raw.FAQs)
}
