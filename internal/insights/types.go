// Package insights defines core types shared across subsystems.
package insights

import (
	"bytes"
	"encoding/json"
	"time"
)

// Product is one catalog or hero product. Hero products never carry an ID,
// price, or description. Nil pointer fields mean the value was never
// discovered, which is distinct from an empty string.
type Product struct {
	ID          *string `json:"id"`
	Title       string  `json:"title"`
	URL         *string `json:"url"`
	Image       *string `json:"image"`
	Price       *string `json:"price"`
	Description *string `json:"description"`
}

// Policy is one storefront policy page.
type Policy struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Policy types discovered from the fixed well-known paths.
const (
	PolicyPrivacy  = "privacy"
	PolicyRefund   = "refund"
	PolicyShipping = "shipping"
	PolicyTerms    = "terms"
)

// FAQ is one question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SocialHandle links a known platform to a discovered profile URL.
type SocialHandle struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// ContactDetail is one discovered email address or phone number.
type ContactDetail struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Contact detail types.
const (
	ContactEmail = "email"
	ContactPhone = "phone"
)

// ImportantLink is a navigation link whose text matched the keyword set.
type ImportantLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// BrandInsights is the unit of output for one extraction run.
type BrandInsights struct {
	ProductCatalog []Product       `json:"product_catalog"`
	HeroProducts   []Product       `json:"hero_products"`
	Policies       []Policy        `json:"policies"`
	FAQs           []FAQ           `json:"faqs"`
	SocialHandles  []SocialHandle  `json:"social_handles"`
	ContactDetails []ContactDetail `json:"contact_details"`
	BrandText      *string         `json:"brand_text"`
	ImportantLinks []ImportantLink `json:"important_links"`
}

// Scalar is a JSON value that may arrive as a number, a string, or null.
// Storefront product feeds are inconsistent about which one they use for
// ids and prices, so decoding never fails: numbers keep their literal form
// and null becomes the empty string.
type Scalar string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*s = Scalar(data)
			return nil
		}
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(data)
	return nil
}

// String returns the scalar's string form.
func (s Scalar) String() string { return string(s) }

// RawCatalogProduct is one entry of a products.json feed, decoded loosely.
type RawCatalogProduct struct {
	ID       Scalar              `json:"id"`
	Title    string              `json:"title"`
	Handle   string              `json:"handle"`
	BodyHTML string              `json:"body_html"`
	Image    *RawProductImage    `json:"image"`
	Images   []RawProductImage   `json:"images"`
	Variants []RawProductVariant `json:"variants"`
}

// RawProductImage is one image record of a raw catalog product.
type RawProductImage struct {
	ID  Scalar `json:"id"`
	Src string `json:"src"`
}

// RawProductVariant is one variant record of a raw catalog product.
type RawProductVariant struct {
	Price   Scalar `json:"price"`
	ImageID Scalar `json:"image_id"`
}

// RawHeroProduct is a product anchor harvested from the homepage.
type RawHeroProduct struct {
	Title string
	URL   string
	Image string
}

// RawPolicy is the unmapped form of a policy page.
type RawPolicy struct {
	Type    string
	URL     string
	Content string
}

// RawFAQ is the unmapped form of a question/answer pair.
type RawFAQ struct {
	Question string
	Answer   string
}

// RawSocialHandle is either a structured handle or, when Handle is nil, a
// bare URL string produced by a fallback strategy.
type RawSocialHandle struct {
	Handle *SocialHandle
	Bare   string
}

// RawContactDetail is either a structured detail or a bare value string.
type RawContactDetail struct {
	Detail *ContactDetail
	Bare   string
}

// RawImportantLink is either a structured link or a bare URL string.
type RawImportantLink struct {
	Link *ImportantLink
	Bare string
}

// RawDocuments carries the raw bodies fetched during a run, kept so the
// orchestrator can archive them.
type RawDocuments struct {
	Homepage     []byte
	ProductsJSON []byte
}

// RawInsights is the combined output of the eight category extractors
// before normalization.
type RawInsights struct {
	Products  []RawCatalogProduct
	Hero      []RawHeroProduct
	Policies  []RawPolicy
	FAQs      []RawFAQ
	Socials   []RawSocialHandle
	Contacts  []RawContactDetail
	BrandText *string
	Links     []RawImportantLink
	Documents RawDocuments
}

// ProductQuery filters and paginates stored catalog products.
type ProductQuery struct {
	Limit  int
	Offset int
	Title  string
}

// FAQQuery filters and paginates stored FAQs.
type FAQQuery struct {
	Limit  int
	Offset int
	Query  string
}

// RunRecord summarizes one completed extraction run for event consumers.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	WebsiteURL  string    `json:"website_url"`
	CompletedAt time.Time `json:"completed_at"`
	Products    int       `json:"products"`
	HeroCount   int       `json:"hero_products"`
	Policies    int       `json:"policies"`
	FAQs        int       `json:"faqs"`
	Socials     int       `json:"social_handles"`
	Contacts    int       `json:"contact_details"`
	Links       int       `json:"important_links"`
	HomePageURI string    `json:"homepage_uri,omitempty"`
	CatalogURI  string    `json:"catalog_uri,omitempty"`
}
