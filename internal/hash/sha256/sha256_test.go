// Package sha256 includes tests for the document digest adapter.
package sha256

import "testing"

// TestHashIsDeterministic ensures identical document bodies always digest to
// the same hex string, which keeps archive object paths stable.
func TestHashIsDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	body := []byte("<html><body>storefront</body></html>")
	got, err := h.Hash(body)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(got))
	}
	again, err := h.Hash(body)
	if err != nil {
		t.Fatalf("Hash() repeat error = %v", err)
	}
	if again != got {
		t.Fatalf("expected deterministic digest, got %s vs %s", got, again)
	}

	other, err := h.Hash([]byte(`{"products": []}`))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if other == got {
		t.Fatal("expected distinct bodies to digest differently")
	}
}
