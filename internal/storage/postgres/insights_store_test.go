package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/damndeepesh/shopify-insights-fetcher/internal/insights"
)

func strPtr(s string) *string { return &s }

func TestReplaceBrandRunsInOneTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewInsightsStoreWithPool(mock)
	require.NoError(t, err)

	ins := insights.BrandInsights{
		ProductCatalog: []insights.Product{{
			ID:          strPtr("1"),
			Title:       "Tee",
			URL:         strPtr("https://brand.example/products/tee"),
			Image:       strPtr("http://x/img.png"),
			Price:       strPtr("19.99"),
			Description: strPtr("<p>desc</p>"),
		}},
		HeroProducts:   []insights.Product{{Title: "Tee", URL: strPtr("https://brand.example/products/tee")}},
		Policies:       []insights.Policy{{Type: insights.PolicyRefund, URL: "https://brand.example/policies/refund-policy", Content: "30 days."}},
		FAQs:           []insights.FAQ{{Question: "Do you ship?", Answer: "Yes."}},
		SocialHandles:  []insights.SocialHandle{{Platform: "instagram", URL: "https://instagram.com/brand"}},
		ContactDetails: []insights.ContactDetail{{Type: insights.ContactEmail, Value: "hi@brand.example"}},
		BrandText:      strPtr("We make tees."),
		ImportantLinks: []insights.ImportantLink{{Name: "Contact Us", URL: "https://brand.example/pages/contact"}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO brands").
		WithArgs("https://brand.example", ins.BrandText).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	for _, table := range childTables {
		mock.ExpectExec("DELETE FROM " + table).
			WithArgs(int64(7)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}
	p := ins.ProductCatalog[0]
	mock.ExpectExec("INSERT INTO products").
		WithArgs(int64(7), p.ID, p.Title, p.URL, p.Image, p.Price, p.Description).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	h := ins.HeroProducts[0]
	mock.ExpectExec("INSERT INTO hero_products").
		WithArgs(int64(7), h.Title, h.URL, h.Image).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO policies").
		WithArgs(int64(7), insights.PolicyRefund, "https://brand.example/policies/refund-policy", "30 days.").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO faqs").
		WithArgs(int64(7), "Do you ship?", "Yes.").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO social_handles").
		WithArgs(int64(7), "instagram", "https://instagram.com/brand").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO contact_details").
		WithArgs(int64(7), insights.ContactEmail, "hi@brand.example").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO important_links").
		WithArgs(int64(7), "Contact Us", "https://brand.example/pages/contact").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = store.ReplaceBrand(context.Background(), "https://brand.example", ins)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceBrandRollsBackOnChildFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewInsightsStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO brands").
		WithArgs("https://brand.example", (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(7)).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err = store.ReplaceBrand(context.Background(), "https://brand.example", insights.BrandInsights{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInsightsReturnsNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewInsightsStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, brand_text FROM brands").
		WithArgs("https://missing.example").
		WillReturnRows(pgxmock.NewRows([]string{"id", "brand_text"}))

	_, err = store.GetInsights(context.Background(), "https://missing.example", insights.ProductQuery{}, insights.FAQQuery{})
	require.ErrorIs(t, err, insights.ErrBrandNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInsightsAppliesQueryFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewInsightsStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, brand_text FROM brands").
		WithArgs("https://brand.example").
		WillReturnRows(pgxmock.NewRows([]string{"id", "brand_text"}).AddRow(int64(7), strPtr("We make tees.")))
	mock.ExpectQuery("FROM products").
		WithArgs(int64(7), "tee", 10, 5).
		WillReturnRows(pgxmock.NewRows([]string{"shopify_id", "title", "url", "image", "price", "description"}).
			AddRow(strPtr("1"), "Tee", strPtr("https://brand.example/products/tee"), nil, strPtr("19.99"), nil))
	mock.ExpectQuery("FROM hero_products").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"title", "url", "image"}))
	mock.ExpectQuery("FROM policies").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"type", "url", "content"}).
			AddRow("privacy", "https://brand.example/policies/privacy-policy", "Privacy."))
	mock.ExpectQuery("FROM faqs").
		WithArgs(int64(7), "ship", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"question", "answer"}).
			AddRow("Do you ship?", "Yes."))
	mock.ExpectQuery("FROM social_handles").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"platform", "url"}))
	mock.ExpectQuery("FROM contact_details").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"type", "value"}))
	mock.ExpectQuery("FROM important_links").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"name", "url"}))

	got, err := store.GetInsights(
		context.Background(),
		"https://brand.example",
		insights.ProductQuery{Limit: 10, Offset: 5, Title: "tee"},
		insights.FAQQuery{Limit: 20, Query: "ship"},
	)
	require.NoError(t, err)
	require.Equal(t, "We make tees.", *got.BrandText)
	require.Len(t, got.ProductCatalog, 1)
	require.Equal(t, "Tee", got.ProductCatalog[0].Title)
	require.Nil(t, got.ProductCatalog[0].Image)
	require.Len(t, got.Policies, 1)
	require.Len(t, got.FAQs, 1)
	require.Empty(t, got.SocialHandles)
	require.NoError(t, mock.ExpectationsWereMet())
}
