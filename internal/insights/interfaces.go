package insights

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a Fetcher once every attempt at a URL has
// been exhausted. Callers treat it as absence of data, never as a fault.
var ErrUnavailable = errors.New("document unavailable")

// ErrBrandNotFound is returned by an InsightsStore when no insights were
// ever persisted for a website URL.
var ErrBrandNotFound = errors.New("brand not found")

// Fetcher retrieves the body of a URL, retrying transient failures
// internally. Only a 200 response counts as success.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// InsightsStore persists brand insights keyed by website URL.
type InsightsStore interface {
	ReplaceBrand(ctx context.Context, websiteURL string, ins BrandInsights) error
	GetInsights(ctx context.Context, websiteURL string, products ProductQuery, faqs FAQQuery) (BrandInsights, error)
}

// SnapshotCache holds the most recently assembled aggregate per website URL.
type SnapshotCache interface {
	SetInsights(ctx context.Context, websiteURL string, ins BrandInsights) error
	GetInsights(ctx context.Context, websiteURL string) (BrandInsights, bool, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for archive paths.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
