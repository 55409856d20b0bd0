package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
	"github.com/google/uuid"
)

// Service is the request queue engine. Every call reloads the document from
// the store and mutating calls save the whole document back.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (SongRequest, error)
	MarkPlayed(ctx context.Context, id string) (SongRequest, error)
	Reorder(ctx context.Context, ids []string) error
	ClearPlayed(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (SongRequest, error)
	ListPublic(ctx context.Context) ([]PublicEntry, error)
	ListAdmin(ctx context.Context) ([]SongRequest, error)
}

// SubmitInput carries an attendee's request as received from the gateway.
type SubmitInput struct {
	Name             string
	SongTitle        string
	PaymentReference string
}

// ServiceParams wires the queue engine.
type ServiceParams struct {
	Store    Store
	Observer Observer
	Logger   *logger.Logger
	Clock    func() time.Time
	NewID    func() string
}

type service struct {
	store    Store
	observer Observer
	logg     *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewService builds the queue engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queue store required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	observer := params.Observer
	if observer == nil {
		observer = Observers(nil)
	}
	return &service{
		store:    params.Store,
		observer: observer,
		logg:     params.Logger,
		now:      clock,
		newID:    newID,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (SongRequest, error) {
	title := strings.TrimSpace(input.SongTitle)
	reference := strings.TrimSpace(input.PaymentReference)
	if title == "" || reference == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "song title and payment reference are required").
			WithDetails(missingFields(title, reference))
		s.reject(ctx, err)
		return SongRequest{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = AnonymousRequester
	}

	doc, err := s.load(ctx)
	if err != nil {
		return SongRequest{}, err
	}
	if doc.IsRedeemed(reference) {
		err := pkgerrors.New(pkgerrors.CodePaymentRedeemed, fmt.Sprintf("payment reference %q already redeemed", reference))
		s.reject(ctx, err)
		return SongRequest{}, err
	}

	req := SongRequest{
		ID:               s.newID(),
		RequesterName:    name,
		SongTitle:        title,
		PaymentReference: reference,
		Status:           enums.RequestStatusPending,
		Order:            doc.nextOrder(),
		CreatedAt:        s.now().UTC(),
	}
	doc.SongRequests = append(doc.SongRequests, req)
	doc.RedeemedPaymentReferences = append(doc.RedeemedPaymentReferences, reference)

	if err := s.save(ctx, doc); err != nil {
		return SongRequest{}, err
	}

	s.observer.Observe(ctx, Event{Type: EventRequestSubmitted, Request: &req, Pending: doc.pendingCount()})
	return req, nil
}

func (s *service) MarkPlayed(ctx context.Context, id string) (SongRequest, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return SongRequest{}, err
	}
	idx := doc.find(id)
	if idx < 0 {
		return SongRequest{}, notFound(id)
	}

	transitioned := doc.SongRequests[idx].IsPending()
	doc.SongRequests[idx].Status = enums.RequestStatusPlayed
	if err := s.save(ctx, doc); err != nil {
		return SongRequest{}, err
	}

	req := doc.SongRequests[idx]
	if transitioned {
		s.observer.Observe(ctx, Event{Type: EventRequestPlayed, Request: &req, Pending: doc.pendingCount()})
	}
	return req, nil
}

func (s *service) Reorder(ctx context.Context, ids []string) error {
	if ids == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must be a list of request ids").
			WithDetails(map[string]string{"order": "is required"})
	}

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	applied := make([]string, 0, len(ids))
	for index, id := range ids {
		idx := doc.find(id)
		if idx < 0 || !doc.SongRequests[idx].IsPending() {
			continue
		}
		doc.SongRequests[idx].Order = index
		applied = append(applied, id)
	}

	if err := s.save(ctx, doc); err != nil {
		return err
	}

	if s.logg != nil && len(applied) < len(ids) {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"requested": len(ids),
			"applied":   len(applied),
		}), "reorder skipped ids that are unknown or already played")
	}
	s.observer.Observe(ctx, Event{Type: EventQueueReordered, RequestIDs: applied, Pending: doc.pendingCount()})
	return nil
}

func (s *service) ClearPlayed(ctx context.Context) (int, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]SongRequest, 0, len(doc.SongRequests))
	removedIDs := []string{}
	for _, req := range doc.SongRequests {
		if req.IsPending() {
			kept = append(kept, req)
			continue
		}
		removedIDs = append(removedIDs, req.ID)
	}
	if len(removedIDs) == 0 {
		return 0, nil
	}

	doc.SongRequests = kept
	if err := s.save(ctx, doc); err != nil {
		return 0, err
	}

	s.observer.Observe(ctx, Event{Type: EventPlayedCleared, RequestIDs: removedIDs, Removed: len(removedIDs), Pending: doc.pendingCount()})
	return len(removedIDs), nil
}

func (s *service) Get(ctx context.Context, id string) (SongRequest, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return SongRequest{}, err
	}
	idx := doc.find(id)
	if idx < 0 {
		return SongRequest{}, notFound(id)
	}
	return doc.SongRequests[idx], nil
}

func (s *service) ListPublic(ctx context.Context) ([]PublicEntry, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return PublicView(doc.SongRequests), nil
}

func (s *service) ListAdmin(ctx context.Context) ([]SongRequest, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return AdminView(doc.SongRequests), nil
}

func (s *service) load(ctx context.Context) (*Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, storeError(err, "load queue")
	}
	if doc == nil {
		doc = NewDocument()
	}
	doc.Normalize()
	return doc, nil
}

func (s *service) save(ctx context.Context, doc *Document) error {
	if err := s.store.Save(ctx, doc); err != nil {
		return storeError(err, "save queue")
	}
	return nil
}

func (s *service) reject(ctx context.Context, err error) {
	reason := string(pkgerrors.CodeInternal)
	if typed := pkgerrors.As(err); typed != nil {
		reason = string(typed.Code())
	}
	s.observer.Observe(ctx, Event{Type: EventSubmitRejected, Reason: reason})
}

func storeError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func notFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "song request not found").
		WithDetails(map[string]string{"id": id})
}

func missingFields(title, reference string) map[string]string {
	details := map[string]string{}
	if title == "" {
		details["songTitle"] = "is required"
	}
	if reference == "" {
		details["paymentReference"] = "is required"
	}
	return details
}
