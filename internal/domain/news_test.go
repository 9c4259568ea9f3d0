package domain_test

import (
	"testing"
	"time"

	"github.com/zionnet/newsflow/internal/domain"
)

func TestCategory_IsValid(t *testing.T) {
	for _, c := range []domain.Category{
		domain.CategoryBusiness, domain.CategoryTechnology, domain.CategoryTop,
		domain.CategoryTourism, domain.CategoryWorld,
	} {
		if !c.IsValid() {
			t.Errorf("category %q: expected valid", c)
		}
	}
	for _, c := range []domain.Category{"", "bogus-category", "Technology", "news"} {
		if c.IsValid() {
			t.Errorf("category %q: expected invalid", c)
		}
	}
}

func TestFilterPreferences(t *testing.T) {
	t.Run("drops invalid entries and caps at five in input order", func(t *testing.T) {
		got := domain.FilterPreferences([]string{
			"technology", "sports", "bogus-category", "world", "health", "tourism",
		})
		want := []domain.Category{"technology", "sports", "world", "health", "tourism"}
		if len(got) != len(want) {
			t.Fatalf("expected %d categories, got %d (%v)", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("all invalid yields empty", func(t *testing.T) {
		if got := domain.FilterPreferences([]string{"x", "y"}); len(got) != 0 {
			t.Fatalf("expected empty, got %v", got)
		}
	})

	t.Run("duplicates are kept as given", func(t *testing.T) {
		got := domain.FilterPreferences([]string{"sports", "sports"})
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %v", got)
		}
	})
}

func TestCacheEntry_Fresh(t *testing.T) {
	now := time.Now()
	ttl := 24 * time.Hour

	e := domain.CacheEntry{FetchedAt: now.Add(-time.Hour)}
	if !e.Fresh(now, ttl) {
		t.Error("entry fetched an hour ago should be fresh under a 24h TTL")
	}

	e.FetchedAt = now.Add(-25 * time.Hour)
	if e.Fresh(now, ttl) {
		t.Error("entry fetched 25h ago should be stale under a 24h TTL")
	}

	e.FetchedAt = now.Add(-ttl)
	if e.Fresh(now, ttl) {
		t.Error("entry exactly at TTL age should be stale")
	}
}
