package queue

import (
	"context"
	"time"

	"github.com/angelmondragon/songqueue-backend/pkg/enums"
)

// AnonymousRequester is stored when a request arrives without a name.
const AnonymousRequester = "Anonymous"

// SongRequest is a single paid request. JSON keys match the documents
// written by earlier versions of the service so existing files load as-is.
type SongRequest struct {
	ID               string              `json:"id"`
	RequesterName    string              `json:"name"`
	SongTitle        string              `json:"songTitle"`
	PaymentReference string              `json:"paymentReference"`
	Status           enums.RequestStatus `json:"status"`
	Order            int                 `json:"order"`
	CreatedAt        time.Time           `json:"timestamp"`
}

// IsPending reports whether the request still participates in ordering.
func (r SongRequest) IsPending() bool {
	return r.Status == enums.RequestStatusPending
}

// PublicEntry is the reduced shape shown on the public queue page.
type PublicEntry struct {
	RequesterName string `json:"name"`
	SongTitle     string `json:"songTitle"`
}

// Document is the whole persisted queue. RedeemedPaymentReferences is
// append-only and outlives the requests that introduced each reference.
type Document struct {
	SongRequests              []SongRequest `json:"songRequests"`
	RedeemedPaymentReferences []string      `json:"redeemedPaymentReferences"`
}

// NewDocument returns the empty default document.
func NewDocument() *Document {
	return &Document{
		SongRequests:              []SongRequest{},
		RedeemedPaymentReferences: []string{},
	}
}

// Normalize replaces nil slices and seeds the redeemed ledger from the
// stored requests, which upgrades documents written before the ledger
// existed. It reports whether anything changed.
func (d *Document) Normalize() bool {
	changed := false
	if d.SongRequests == nil {
		d.SongRequests = []SongRequest{}
	}
	if d.RedeemedPaymentReferences == nil {
		d.RedeemedPaymentReferences = []string{}
	}
	redeemed := d.redeemedSet()
	for _, req := range d.SongRequests {
		if req.PaymentReference == "" {
			continue
		}
		if _, ok := redeemed[req.PaymentReference]; ok {
			continue
		}
		redeemed[req.PaymentReference] = struct{}{}
		d.RedeemedPaymentReferences = append(d.RedeemedPaymentReferences, req.PaymentReference)
		changed = true
	}
	return changed
}

// IsRedeemed reports whether reference was ever accepted.
func (d *Document) IsRedeemed(reference string) bool {
	for _, ref := range d.RedeemedPaymentReferences {
		if ref == reference {
			return true
		}
	}
	for _, req := range d.SongRequests {
		if req.PaymentReference == reference {
			return true
		}
	}
	return false
}

func (d *Document) redeemedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.RedeemedPaymentReferences))
	for _, ref := range d.RedeemedPaymentReferences {
		set[ref] = struct{}{}
	}
	return set
}

func (d *Document) find(id string) int {
	for i := range d.SongRequests {
		if d.SongRequests[i].ID == id {
			return i
		}
	}
	return -1
}

// nextOrder is one past the highest order across every request, played
// ones included, or 0 for an empty queue.
func (d *Document) nextOrder() int {
	if len(d.SongRequests) == 0 {
		return 0
	}
	max := d.SongRequests[0].Order
	for _, req := range d.SongRequests[1:] {
		if req.Order > max {
			max = req.Order
		}
	}
	return max + 1
}

func (d *Document) pendingCount() int {
	n := 0
	for _, req := range d.SongRequests {
		if req.IsPending() {
			n++
		}
	}
	return n
}

// Store loads and replaces the whole queue document. Load returns an
// empty document when nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
