// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

// InsightsStoreConfig controls the Postgres connection pool.
type InsightsStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// InsightsStore implements insights.InsightsStore on Postgres. Each brand's
// child rows are replaced wholesale inside a transaction, which mirrors the
// per-run semantics of extraction: a new run supersedes everything known
// about the brand.
type InsightsStore struct {
	pool pgxPool
}

// childTables are the per-brand tables cleared on each replace, in FK order.
var childTables = []string{
	"products",
	"hero_products",
	"policies",
	"faqs",
	"social_handles",
	"contact_details",
	"important_links",
}

// NewInsightsStore creates a Postgres-backed InsightsStore using the provided config.
func NewInsightsStore(ctx context.Context, cfg InsightsStoreConfig) (*InsightsStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &InsightsStore{pool: pool}, nil
}

// NewInsightsStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewInsightsStoreWithPool(pool pgxPool) (*InsightsStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &InsightsStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *InsightsStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// ReplaceBrand upserts the brand row and replaces all of its child rows with
// the given aggregate, atomically.
func (s *InsightsStore) ReplaceBrand(ctx context.Context, websiteURL string, ins insights.BrandInsights) error {
	if websiteURL == "" {
		return fmt.Errorf("website url is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var brandID int64
	err = tx.QueryRow(ctx, `
INSERT INTO brands (url, brand_text)
VALUES ($1, $2)
ON CONFLICT (url) DO UPDATE SET brand_text = EXCLUDED.brand_text
RETURNING id`, websiteURL, ins.BrandText).Scan(&brandID)
	if err != nil {
		return fmt.Errorf("upsert brand: %w", err)
	}

	for _, table := range childTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE brand_id = $1", table), brandID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, p := range ins.ProductCatalog {
		_, err = tx.Exec(ctx, `
INSERT INTO products (brand_id, shopify_id, title, url, image, price, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			brandID, p.ID, p.Title, p.URL, p.Image, p.Price, p.Description)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}
	for _, p := range ins.HeroProducts {
		_, err = tx.Exec(ctx, `
INSERT INTO hero_products (brand_id, title, url, image)
VALUES ($1, $2, $3, $4)`,
			brandID, p.Title, p.URL, p.Image)
		if err != nil {
			return fmt.Errorf("insert hero product: %w", err)
		}
	}
	for _, p := range ins.Policies {
		_, err = tx.Exec(ctx, `
INSERT INTO policies (brand_id, type, url, content)
VALUES ($1, $2, $3, $4)`,
			brandID, p.Type, p.URL, p.Content)
		if err != nil {
			return fmt.Errorf("insert policy: %w", err)
		}
	}
	for _, f := range ins.FAQs {
		_, err = tx.Exec(ctx, `
INSERT INTO faqs (brand_id, question, answer)
VALUES ($1, $2, $3)`,
			brandID, f.Question, f.Answer)
		if err != nil {
			return fmt.Errorf("insert faq: %w", err)
		}
	}
	for _, h := range ins.SocialHandles {
		_, err = tx.Exec(ctx, `
INSERT INTO social_handles (brand_id, platform, url)
VALUES ($1, $2, $3)`,
			brandID, h.Platform, h.URL)
		if err != nil {
			return fmt.Errorf("insert social handle: %w", err)
		}
	}
	for _, c := range ins.ContactDetails {
		_, err = tx.Exec(ctx, `
INSERT INTO contact_details (brand_id, type, value)
VALUES ($1, $2, $3)`,
			brandID, c.Type, c.Value)
		if err != nil {
			return fmt.Errorf("insert contact detail: %w", err)
		}
	}
	for _, l := range ins.ImportantLinks {
		_, err = tx.Exec(ctx, `
INSERT INTO important_links (brand_id, name, url)
VALUES ($1, $2, $3)`,
			brandID, l.Name, l.URL)
		if err != nil {
			return fmt.Errorf("insert important link: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// GetInsights reads the stored aggregate for a website URL. Products and
// FAQs honor their query filters; the remaining categories are returned in
// full. A limit of zero means no limit.
func (s *InsightsStore) GetInsights(
	ctx context.Context,
	websiteURL string,
	products insights.ProductQuery,
	faqs insights.FAQQuery,
) (insights.BrandInsights, error) {
	var (
		brandID int64
		out     insights.BrandInsights
	)
	err := s.pool.QueryRow(ctx,
		"SELECT id, brand_text FROM brands WHERE url = $1", websiteURL,
	).Scan(&brandID, &out.BrandText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return insights.BrandInsights{}, insights.ErrBrandNotFound
		}
		return insights.BrandInsights{}, fmt.Errorf("get brand: %w", err)
	}

	out.ProductCatalog, err = s.queryProducts(ctx, brandID, products)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.HeroProducts, err = s.queryHero(ctx, brandID)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.Policies, err = s.queryPolicies(ctx, brandID)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.FAQs, err = s.queryFAQs(ctx, brandID, faqs)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.SocialHandles, err = s.querySocials(ctx, brandID)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.ContactDetails, err = s.queryContacts(ctx, brandID)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	out.ImportantLinks, err = s.queryLinks(ctx, brandID)
	if err != nil {
		return insights.BrandInsights{}, err
	}
	return out, nil
}

func (s *InsightsStore) queryProducts(ctx context.Context, brandID int64, q insights.ProductQuery) ([]insights.Product, error) {
	rows, err := s.pool.Query(ctx, `
SELECT shopify_id, title, url, image, price, description
FROM products
WHERE brand_id = $1 AND ($2 = '' OR title ILIKE '%' || $2 || '%')
ORDER BY id
LIMIT NULLIF($3, 0) OFFSET $4`,
		brandID, q.Title, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []insights.Product{}
	for rows.Next() {
		var p insights.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Image, &p.Price, &p.Description); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *InsightsStore) queryHero(ctx context.Context, brandID int64) ([]insights.Product, error) {
	rows, err := s.pool.Query(ctx, `
SELECT title, url, image
FROM hero_products
WHERE brand_id = $1
ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("query hero products: %w", err)
	}
	defer rows.Close()

	out := []insights.Product{}
	for rows.Next() {
		var p insights.Product
		if err := rows.Scan(&p.Title, &p.URL, &p.Image); err != nil {
			return nil, fmt.Errorf("scan hero product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *InsightsStore) queryPolicies(ctx context.Context, brandID int64) ([]insights.Policy, error) {
	rows, err := s.pool.Query(ctx, `
SELECT type, url, content
FROM policies
WHERE brand_id = $1
ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}
	defer rows.Close()

	out := []insights.Policy{}
	for rows.Next() {
		var p insights.Policy
		if err := rows.Scan(&p.Type, &p.URL, &p.Content); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *InsightsStore) queryFAQs(ctx context.Context, brandID int64, q insights.FAQQuery) ([]insights.FAQ, error) {
	rows, err := s.pool.Query(ctx, `
SELECT question, answer
FROM faqs
WHERE brand_id = $1
  AND ($2 = '' OR question ILIKE '%' || $2 || '%' OR answer ILIKE '%' || $2 || '%')
ORDER BY id
LIMIT NULLIF($3, 0) OFFSET $4`,
		brandID, q.Query, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("query faqs: %w", err)
	}
	defer rows.Close()

	out := []insights.FAQ{}
	for rows.Next() {
		var f insights.FAQ
		if err := rows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *InsightsStore) querySocials(ctx context.Context, brandID int64) ([]insights.SocialHandle, error) {
	rows, err := s.pool.Query(ctx, `
SELECT platform, url
FROM social_handles
WHERE brand_id = $1
ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("query social handles: %w", err)
	}
	defer rows.Close()

	out := []insights.SocialHandle{}
	for rows.Next() {
		var h insights.SocialHandle
		if err := rows.Scan(&h.Platform, &h.URL); err != nil {
			return nil, fmt.Errorf("scan social handle: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *InsightsStore) queryContacts(ctx context.Context, brandID int64) ([]insights.ContactDetail, error) {
	rows, err := s.pool.Query(ctx, `
SELECT type, value
FROM contact_details
WHERE brand_id = $1
ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("query contact details: %w", err)
	}
	defer rows.Close()

	out := []insights.ContactDetail{}
	for rows.Next() {
		var c insights.ContactDetail
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, fmt.Errorf("scan contact detail: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *InsightsStore) queryLinks(ctx context.Context, brandID int64) ([]insights.ImportantLink, error) {
	rows, err := s.pool.Query(ctx, `
SELECT name, url
FROM important_links
WHERE brand_id = $1
ORDER BY id`, brandID)
	if err != nil {
		return nil, fmt.Errorf("query important links: %w", err)
	}
	defer rows.Close()

	out := []insights.ImportantLink{}
	for rows.Next() {
		var l insights.ImportantLink
		if err := rows.Scan(&l.Name, &l.URL); err != nil {
			return nil, fmt.Errorf("scan important link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
