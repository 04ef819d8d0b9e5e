package extractor

import (
	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// Normalize maps raw extractor output into the canonical aggregate. Every
// mapping function is total over heterogeneous input: missing values
// default to empty/absent and bare-string records become entries with the
// string as their sole populated field. The function is pure; running it
// twice over the same input yields identical results.
func Normalize(raw insights.RawInsights, baseURL string) insights.BrandInsights {
	out := insights.BrandInsights{
		ProductCatalog: normalizeCatalog(raw.Products, baseURL),
		HeroProducts:   normalizeHero(raw.Hero),
		Policies:       normalizePolicies(raw.Policies),
		FAQs:           normalizeFAQs(raw.FAQs),
		SocialHandles:  normalizeSocials(raw.Socials),
		ContactDetails: normalizeContacts(raw.Contacts),
		ImportantLinks: normalizeLinks(raw.Links),
	}
	if raw.BrandText != nil {
		text := *raw.BrandText
		out.BrandText = &text
	}
	return out
}

func normalizeCatalog(products []insights.RawCatalogProduct, baseURL string) []insights.Product {
	out := make([]insights.Product, 0, len(products))
	seen := make(map[string]struct{})
	for _, p := range products {
		prod := insights.Product{
			ID:          ptr(p.ID.String()),
			Title:       p.Title,
			Image:       catalogImage(p),
			Description: ptr(p.BodyHTML),
		}
		if p.Handle != "" {
			prod.URL = ptr(baseURL + "/products/" + p.Handle)
		}
		if len(p.Variants) > 0 {
			prod.Price = ptr(p.Variants[0].Price.String())
		}
		if prod.URL != nil {
			if _, ok := seen[*prod.URL]; ok {
				continue
			}
			seen[*prod.URL] = struct{}{}
		}
		out = append(out, prod)
	}
	return out
}

// catalogImage resolves a catalog product's image: the top-level image,
// then the first images entry with a src, then the image matched by a
// variant's image_id.
func catalogImage(p insights.RawCatalogProduct) *string {
	if p.Image != nil && p.Image.Src != "" {
		return ptr(p.Image.Src)
	}
	for _, img := range p.Images {
		if img.Src != "" {
			return ptr(img.Src)
		}
	}
	for _, v := range p.Variants {
		if v.ImageID == "" {
			continue
		}
		for _, img := range p.Images {
			if img.ID == v.ImageID && img.Src != "" {
				return ptr(img.Src)
			}
		}
	}
	return nil
}

func normalizeHero(hero []insights.RawHeroProduct) []insights.Product {
	out := make([]insights.Product, 0, len(hero))
	seen := make(map[string]struct{})
	for _, h := range hero {
		if h.URL != "" {
			if _, ok := seen[h.URL]; ok {
				continue
			}
			seen[h.URL] = struct{}{}
		}
		prod := insights.Product{Title: h.Title}
		if h.URL != "" {
			prod.URL = ptr(h.URL)
		}
		if h.Image != "" {
			prod.Image = ptr(h.Image)
		}
		out = append(out, prod)
	}
	return out
}

func normalizePolicies(policies []insights.RawPolicy) []insights.Policy {
	out := make([]insights.Policy, 0, len(policies))
	seen := make(map[string]struct{})
	for _, p := range policies {
		if _, ok := seen[p.Type]; ok {
			continue
		}
		seen[p.Type] = struct{}{}
		out = append(out, insights.Policy{Type: p.Type, URL: p.URL, Content: p.Content})
	}
	return out
}

func normalizeFAQs(faqs []insights.RawFAQ) []insights.FAQ {
	out := make([]insights.FAQ, 0, len(faqs))
	for _, f := range faqs {
		out = append(out, insights.FAQ{Question: f.Question, Answer: f.Answer})
	}
	return out
}

func normalizeSocials(socials []insights.RawSocialHandle) []insights.SocialHandle {
	out := make([]insights.SocialHandle, 0, len(socials))
	seen := make(map[string]struct{})
	for _, s := range socials {
		handle := insights.SocialHandle{}
		if s.Handle != nil {
			handle = *s.Handle
		} else {
			handle.URL = s.Bare
		}
		if _, ok := seen[handle.URL]; ok {
			continue
		}
		seen[handle.URL] = struct{}{}
		out = append(out, handle)
	}
	return out
}

func normalizeContacts(contacts []insights.RawContactDetail) []insights.ContactDetail {
	out := make([]insights.ContactDetail, 0, len(contacts))
	seen := make(map[insights.ContactDetail]struct{})
	for _, c := range contacts {
		detail := insights.ContactDetail{}
		if c.Detail != nil {
			detail = *c.Detail
		} else {
			detail.Value = c.Bare
		}
		if _, ok := seen[detail]; ok {
			continue
		}
		seen[detail] = struct{}{}
		out = append(out, detail)
	}
	return out
}

func normalizeLinks(links []insights.RawImportantLink) []insights.ImportantLink {
	out := make([]insights.ImportantLink, 0, len(links))
	seen := make(map[string]struct{})
	for _, l := range links {
		link := insights.ImportantLink{}
		if l.Link != nil {
			link = *l.Link
		} else {
			link.URL = l.Bare
		}
		if _, ok := seen[link.URL]; ok {
			continue
		}
		seen[link.URL] = struct{}{}
		out = append(out, link)
	}
	return out
}

func ptr(s string) *string {
	return &s
}
