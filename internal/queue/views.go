package queue

import "sort"

// PublicView lists pending requests in play order with only the display
// fields.
func PublicView(requests []SongRequest) []PublicEntry {
	pending := make([]SongRequest, 0, len(requests))
	for _, req := range requests {
		if req.IsPending() {
			pending = append(pending, req)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pendingLess(pending[i], pending[j])
	})

	entries := make([]PublicEntry, 0, len(pending))
	for _, req := range pending {
		entries = append(entries, PublicEntry{RequesterName: req.RequesterName, SongTitle: req.SongTitle})
	}
	return entries
}

// AdminView lists every request: pending first in play order, then played
// with the most recently created first. The input is not modified.
func AdminView(requests []SongRequest) []SongRequest {
	out := make([]SongRequest, len(requests))
	copy(out, requests)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPending() != b.IsPending() {
			return a.IsPending()
		}
		if a.IsPending() {
			return pendingLess(a, b)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// pendingLess orders by rank; equal ranks (partial reorders, legacy data)
// fall back to creation time and then id.
func pendingLess(a, b SongRequest) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
