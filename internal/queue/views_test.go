package queue

import (
	"testing"
	"time"

	"github.com/angelmondragon/songqueue-backend/pkg/enums"
)

func TestPublicViewFiltersAndSorts(t *testing.T) {
	base := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	requests := []SongRequest{
		{ID: "c", RequesterName: "Cleo", SongTitle: "Song C", Status: enums.RequestStatusPending, Order: 2, CreatedAt: base},
		{ID: "p", RequesterName: "Pat", SongTitle: "Played", Status: enums.RequestStatusPlayed, Order: 0, CreatedAt: base},
		{ID: "a", RequesterName: "Alice", SongTitle: "Song A", Status: enums.RequestStatusPending, Order: 0, CreatedAt: base.Add(time.Minute)},
		{ID: "b", RequesterName: "Bob", SongTitle: "Song B", Status: enums.RequestStatusPending, Order: 0, CreatedAt: base.Add(2 * time.Minute)},
	}

	got := PublicView(requests)
	want := []PublicEntry{
		{RequesterName: "Alice", SongTitle: "Song A"},
		{RequesterName: "Bob", SongTitle: "Song B"},
		{RequesterName: "Cleo", SongTitle: "Song C"},
	}
	assertPublic(t, got, want)

	if requests[0].ID != "c" {
		t.Fatal("PublicView must not reorder its input")
	}
}

func TestPublicViewEmpty(t *testing.T) {
	got := PublicView(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil listing, got %#v", got)
	}
}

func TestAdminViewGroupsPendingThenPlayedByRecency(t *testing.T) {
	base := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	requests := []SongRequest{
		{ID: "old-played", Status: enums.RequestStatusPlayed, Order: 9, CreatedAt: base},
		{ID: "pending-2", Status: enums.RequestStatusPending, Order: 2, CreatedAt: base},
		{ID: "new-played", Status: enums.RequestStatusPlayed, Order: 1, CreatedAt: base.Add(time.Hour)},
		{ID: "pending-1", Status: enums.RequestStatusPending, Order: 1, CreatedAt: base.Add(time.Minute)},
	}

	got := AdminView(requests)
	wantIDs := []string{"pending-1", "pending-2", "new-played", "old-played"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if requests[0].ID != "old-played" {
		t.Fatal("AdminView must not reorder its input")
	}
}

func TestDocumentNormalize(t *testing.T) {
	doc := &Document{SongRequests: []SongRequest{
		{ID: "1", PaymentReference: "ref1"},
		{ID: "2", PaymentReference: "ref2"},
	}}
	if !doc.Normalize() {
		t.Fatal("expected legacy document to be upgraded")
	}
	if len(doc.RedeemedPaymentReferences) != 2 {
		t.Fatalf("expected seeded ledger, got %v", doc.RedeemedPaymentReferences)
	}
	if doc.Normalize() {
		t.Fatal("second normalize should be a no-op")
	}

	empty := &Document{}
	empty.Normalize()
	if empty.SongRequests == nil || empty.RedeemedPaymentReferences == nil {
		t.Fatal("normalize must replace nil slices")
	}
	if empty.nextOrder() != 0 {
		t.Fatalf("expected order 0 for empty document, got %d", empty.nextOrder())
	}
}
