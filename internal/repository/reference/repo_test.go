package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResolver_LabelsAndFallback(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "facetdex-meta:ref:countries" {
			t.Errorf("unexpected key: %s", key)
		}
		return map[string]string{"FR": "France", "DE": "Germany"}, nil
	}

	resolve, err := repo.Resolver(context.Background(), "countries")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label, ok := resolve("FR"); !ok || label != "France" {
		t.Errorf("FR = %q, %v", label, ok)
	}
	if _, ok := resolve("XX"); ok {
		t.Error("unknown code must not resolve")
	}
}

func TestLabels_Cached(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{"a": "A"}, nil
	}

	for range 3 {
		if _, err := repo.Labels(context.Background(), "letters"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := ms.reads.Load(); n != 1 {
		t.Errorf("reads = %d, want 1", n)
	}

	repo.Invalidate("letters")
	if _, err := repo.Labels(context.Background(), "letters"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := ms.reads.Load(); n != 2 {
		t.Errorf("reads after invalidate = %d, want 2", n)
	}
}

func TestLabels_StoreErrorNotCached(t *testing.T) {
	repo, ms := newTestRepo(t)
	boom := errors.New("timeout")
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) { return nil, boom }

	if _, err := repo.Labels(context.Background(), "letters"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}

	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) {
		return map[string]string{"a": "A"}, nil
	}
	table, err := repo.Labels(context.Background(), "letters")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table["a"] != "A" {
		t.Errorf("table = %v", table)
	}
}

func TestSave_Invalidates(t *testing.T) {
	repo, ms := newTestRepo(t)
	stored := map[string]string{"a": "A"}
	ms.hgetAllFn = func(_ context.Context, _ string) (map[string]string, error) { return stored, nil }
	ms.hsetFn = func(_ context.Context, _ string, fields map[string]string) error {
		stored = fields
		return nil
	}

	if _, err := repo.Labels(context.Background(), "letters"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Save(context.Background(), "letters", map[string]string{"b": "B"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table, err := repo.Labels(context.Background(), "letters")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table["b"] != "B" {
		t.Errorf("expected reloaded table, got %v", table)
	}
}

func TestLabels_CacheMetric(t *testing.T) {
	ms := &mockStore{}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ref_cache_total"}, []string{"result"})
	repo := New(ms, counter, nil)

	for range 2 {
		if _, err := repo.Labels(context.Background(), "letters"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
}
