package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// socialDomains maps platform names to their domain substring. Matching is
// a plain substring test against every href, so a redirect URL carrying a
// platform domain in its query string will also match; that false-positive
// rate is accepted rather than tightened.
var socialDomains = []struct {
	Platform string
	Domain   string
}{
	{"instagram", "instagram.com"},
	{"facebook", "facebook.com"},
	{"twitter", "twitter.com"},
	{"tiktok", "tiktok.com"},
	{"youtube", "youtube.com"},
	{"pinterest", "pinterest.com"},
	{"linkedin", "linkedin.com"},
}

// socialHandles scans every homepage anchor href for known platform
// domains, deduplicating by href.
func (r *run) socialHandles(ctx context.Context) []insights.RawSocialHandle {
	doc := r.homepage(ctx)
	if doc == nil {
		return nil
	}

	var out []insights.RawSocialHandle
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		for _, sd := range socialDomains {
			if !strings.Contains(href, sd.Domain) {
				continue
			}
			if _, ok := seen[href]; ok {
				continue
			}
			seen[href] = struct{}{}
			out = append(out, insights.RawSocialHandle{
				Handle: &insights.SocialHandle{Platform: sd.Platform, URL: href},
			})
		}
	})
	return out
}

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s()-]{7,}\d`)
)

// contactDetails applies the email and phone patterns to every visible
// text string of the homepage, emails first, deduplicating by (type, value).
func (r *run) contactDetails(ctx context.Context) []insights.RawContactDetail {
	doc := r.homepage(ctx)
	if doc == nil {
		return nil
	}
	texts := textStrings(doc.Selection)

	var out []insights.RawContactDetail
	seen := make(map[insights.ContactDetail]struct{})
	add := func(kind, value string) {
		detail := insights.ContactDetail{Type: kind, Value: value}
		if _, ok := seen[detail]; ok {
			return
		}
		seen[detail] = struct{}{}
		out = append(out, insights.RawContactDetail{Detail: &detail})
	}

	for _, t := range texts {
		for _, m := range emailPattern.FindAllString(t, -1) {
			add(insights.ContactEmail, m)
		}
	}
	for _, t := range texts {
		for _, m := range phonePattern.FindAllString(t, -1) {
			add(insights.ContactPhone, m)
		}
	}
	return out
}

// aboutSelectors is the ordered strategy list for locating brand copy.
var aboutSelectors = []string{"#about", ".about", "#about-us", ".about-us"}

// brandText tries the about selectors in order, then falls back to the
// meta description. Nil means nothing was found, which is distinct from an
// empty string.
func (r *run) brandText(ctx context.Context) *string {
	doc := r.homepage(ctx)
	if doc == nil {
		return nil
	}
	for _, sel := range aboutSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			text := stripJoin(s, " ")
			return &text
		}
	}
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return &content
	}
	return nil
}

// importantKeywords select anchors worth surfacing by their visible text.
var importantKeywords = []string{"order", "track", "contact", "blog", "faq", "help", "support"}

// importantLinks records every homepage anchor whose visible text contains
// one of the keywords, deduplicating by resolved URL.
func (r *run) importantLinks(ctx context.Context) []insights.RawImportantLink {
	doc := r.homepage(ctx)
	if doc == nil {
		return nil
	}

	var out []insights.RawImportantLink
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := stripJoin(a, "")
		lower := strings.ToLower(text)
		matched := false
		for _, kw := range importantKeywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		href, _ := a.Attr("href")
		url := joinURL(r.baseURL, href)
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		out = append(out, insights.RawImportantLink{
			Link: &insights.ImportantLink{Name: text, URL: url},
		})
	})
	return out
}
