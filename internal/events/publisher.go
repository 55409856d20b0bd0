// Package events publishes queue lifecycle events to Pub/Sub so display
// screens and other consumers can follow the queue without polling.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	envelopeVersion       = 1
	defaultPublishTimeout = 5 * time.Second
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// Envelope is the JSON body of every published message.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// RequestPayload omits the payment reference; consumers only display it.
type RequestPayload struct {
	ID            string `json:"id"`
	RequesterName string `json:"name"`
	SongTitle     string `json:"songTitle"`
	Status        string `json:"status"`
	Order         int    `json:"order"`
	Pending       int    `json:"pending"`
}

type QueuePayload struct {
	RequestIDs []string `json:"requestIds"`
	Removed    int      `json:"removed,omitempty"`
	Pending    int      `json:"pending"`
}

// PublisherParams configure the event publisher.
type PublisherParams struct {
	Logger    *logger.Logger
	Publisher *gcppubsub.Publisher
	Timeout   time.Duration
}

// Publisher implements queue.Observer. Messages are sent on background
// goroutines so a slow topic never delays the HTTP response.
type Publisher struct {
	logg    *logger.Logger
	pub     publisher
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewPublisher wraps a Pub/Sub publisher handle.
func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Publisher == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPublisher(params.Logger, &gcpPublisher{Publisher: params.Publisher}, params.Timeout), nil
}

func newPublisher(logg *logger.Logger, pub publisher, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Publisher{logg: logg, pub: pub, timeout: timeout, now: time.Now}
}

// Observe publishes accepted mutations. Rejected submissions are not
// published.
func (p *Publisher) Observe(ctx context.Context, event queue.Event) {
	if event.Type == queue.EventSubmitRejected {
		return
	}
	msg, err := p.message(event)
	if err != nil {
		p.logFailure(ctx, event, err)
		return
	}

	pubCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.send(pubCtx, msg); err != nil {
			p.logFailure(pubCtx, event, err)
		}
	}()
}

// Wait blocks until in-flight publishes finish or ctx is done.
func (p *Publisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) send(ctx context.Context, msg *gcppubsub.Message) error {
	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	_, err := result.Get(publishCtx)
	return err
}

func (p *Publisher) message(event queue.Event) (*gcppubsub.Message, error) {
	var data any
	switch {
	case event.Request != nil:
		req := event.Request
		data = RequestPayload{
			ID:            req.ID,
			RequesterName: req.RequesterName,
			SongTitle:     req.SongTitle,
			Status:        req.Status.String(),
			Order:         req.Order,
			Pending:       event.Pending,
		}
	default:
		ids := event.RequestIDs
		if ids == nil {
			ids = []string{}
		}
		data = QueuePayload{RequestIDs: ids, Removed: event.Removed, Pending: event.Pending}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	envelope := Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		EventType:  string(event.Type),
		OccurredAt: p.now().UTC(),
		Data:       raw,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	return &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":    envelope.EventID,
			"event_type":  envelope.EventType,
			"occurred_at": envelope.OccurredAt.Format(time.RFC3339Nano),
		},
	}, nil
}

func (p *Publisher) logFailure(ctx context.Context, event queue.Event, err error) {
	if p.logg == nil {
		return
	}
	p.logg.Error(p.logg.WithField(ctx, "event_type", string(event.Type)), "queue event publish failed", err)
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
