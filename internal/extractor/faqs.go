package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// faqPaths is a fallback chain: the first path that both fetches and yields
// at least one FAQ wins, and later paths are never attempted.
var faqPaths = []string{"/pages/faq", "/pages/faqs", "/faq", "/faqs"}

// faqStrategies are the in-page heuristics. Unlike the path chain, all of
// them run against the chosen page and their results are concatenated.
var faqStrategies = []func(*goquery.Document) []insights.RawFAQ{
	faqClassItems,
	faqDisclosures,
	faqHeadingPairs,
}

func (r *run) faqs(ctx context.Context) []insights.RawFAQ {
	for _, path := range faqPaths {
		body, err := r.fetcher.Get(ctx, r.baseURL+path)
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			continue
		}
		var out []insights.RawFAQ
		for _, strategy := range faqStrategies {
			out = append(out, strategy(doc)...)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// faqClassItems reads elements carrying the faq or faq-item class: the
// first heading-ish child is the question, the first paragraph/div child
// the answer. Items missing either are skipped.
func faqClassItems(doc *goquery.Document) []insights.RawFAQ {
	var out []insights.RawFAQ
	doc.Find(".faq, .faq-item").Each(func(_ int, item *goquery.Selection) {
		q := item.Find("h2, h3, h4, strong").First()
		a := item.Find("p, div").First()
		if q.Length() == 0 || a.Length() == 0 {
			return
		}
		out = append(out, insights.RawFAQ{
			Question: stripJoin(q, ""),
			Answer:   stripJoin(a, ""),
		})
	})
	return out
}

// faqDisclosures reads details/summary widgets: the summary is the
// question, and the answer is the details text with the question removed
// once.
func faqDisclosures(doc *goquery.Document) []insights.RawFAQ {
	var out []insights.RawFAQ
	doc.Find("details").Each(func(_ int, details *goquery.Selection) {
		summary := details.Find("summary").First()
		if summary.Length() == 0 {
			return
		}
		question := stripJoin(summary, "")
		answer := strings.TrimSpace(strings.Replace(stripJoin(details, ""), question, "", 1))
		out = append(out, insights.RawFAQ{Question: question, Answer: answer})
	})
	return out
}

// faqHeadingPairs reads h2/h3 headings immediately followed by a sibling
// paragraph.
func faqHeadingPairs(doc *goquery.Document) []insights.RawFAQ {
	var out []insights.RawFAQ
	doc.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		p := h.NextFiltered("p")
		if p.Length() == 0 {
			return
		}
		out = append(out, insights.RawFAQ{
			Question: stripJoin(h, ""),
			Answer:   stripJoin(p, ""),
		})
	})
	return out
}
