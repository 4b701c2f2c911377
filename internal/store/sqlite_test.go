package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"SellerWatch/internal/models"
)

func newTestRepo(t *testing.T) *SellerRepository {
	t.Helper()
	repo := InitDB(filepath.Join(t.TempDir(), "sellers.db"))
	t.Cleanup(repo.Close)
	return repo
}

func testSeller(handle string, kind models.MonitorKind) models.TrackedSeller {
	return models.TrackedSeller{
		StoreName:    "Test Store",
		Handle:       handle,
		Kind:         kind,
		KnownItemIDs: models.IDSet{},
		AddedAt:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAddAndGetSeller(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Add(testSeller("teststore", models.KindListings)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get("teststore", models.KindListings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Handle != "teststore" || got.Kind != models.KindListings || got.StoreName != "Test Store" {
		t.Fatalf("wrong seller returned: %+v", got)
	}
	if got.LastCheckedAt != nil {
		t.Error("a never-checked seller must have no lastCheckedAt")
	}
	if got.KnownItemIDs == nil || len(got.KnownItemIDs) != 0 {
		t.Errorf("expected empty known set, got %v", got.KnownItemIDs)
	}
}

func TestAddDuplicatePairIsRejected(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Add(testSeller("teststore", models.KindListings)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := repo.Add(testSeller("teststore", models.KindListings))
	if !errors.Is(err, ErrSellerExists) {
		t.Fatalf("expected ErrSellerExists, got %v", err)
	}

	// The same handle under the other kind is a separate record.
	if err := repo.Add(testSeller("teststore", models.KindSales)); err != nil {
		t.Fatalf("same handle with different kind must be allowed: %v", err)
	}
}

func TestRemoveSeller(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Add(testSeller("teststore", models.KindListings)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Remove("teststore", models.KindListings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Remove("teststore", models.KindListings); !errors.Is(err, ErrSellerNotFound) {
		t.Fatalf("expected ErrSellerNotFound on second removal, got %v", err)
	}
}

func TestSaveRoundTripsCrawlState(t *testing.T) {
	repo := newTestRepo(t)

	seller := testSeller("teststore", models.KindSales)
	if err := repo.Add(seller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checked := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	seller.KnownItemIDs = models.NewIDSet("111", "222", "333")
	seller.LastCheckedAt = &checked
	if err := repo.Save(seller); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get("teststore", models.KindSales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"111", "222", "333"} {
		if !got.KnownItemIDs.Has(id) {
			t.Errorf("known set lost %s across the round trip", id)
		}
	}
	if got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(checked) {
		t.Errorf("lastCheckedAt = %v; want %v", got.LastCheckedAt, checked)
	}
}

func TestSaveUnknownSellerReturnsNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Save(testSeller("ghost", models.KindListings))
	if !errors.Is(err, ErrSellerNotFound) {
		t.Fatalf("expected ErrSellerNotFound, got %v", err)
	}
}

func TestGetAllAndGetByKind(t *testing.T) {
	repo := newTestRepo(t)

	for _, s := range []models.TrackedSeller{
		testSeller("alpha", models.KindListings),
		testSeller("beta", models.KindSales),
		testSeller("gamma", models.KindListings),
	} {
		if err := repo.Add(s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := repo.GetAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sellers, got %d", len(all))
	}

	listings, err := repo.GetByKind(models.KindListings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings sellers, got %d", len(listings))
	}
	for _, s := range listings {
		if s.Kind != models.KindListings {
			t.Errorf("kind filter leaked %+v", s)
		}
	}
}
