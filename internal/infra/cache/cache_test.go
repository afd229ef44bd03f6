package cache_test

import (
	"testing"
	"time"

	"github.com/payops/dashboard-bff-go/internal/domain"
	"github.com/payops/dashboard-bff-go/internal/infra/cache"
)

func TestSetAndGet(t *testing.T) {
	c := cache.New[domain.DomainSnapshot](time.Minute)

	snap := domain.DomainSnapshot{
		Domain: domain.Domain{URL: "https://service.example.com"},
		State:  domain.SnapshotSuccess,
	}
	c.Set("https://service.example.com", snap)

	got, ok := c.Get("https://service.example.com")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Domain.URL != snap.Domain.URL {
		t.Errorf("expected %q, got %q", snap.Domain.URL, got.Domain.URL)
	}
}

func TestGetMissing(t *testing.T) {
	c := cache.New[int](time.Minute)

	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestExpiry(t *testing.T) {
	c := cache.New[string](10 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestDelete(t *testing.T) {
	c := cache.New[string](time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to be deleted")
	}
}
