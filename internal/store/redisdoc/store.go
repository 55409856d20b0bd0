// Package redisdoc keeps the queue document under a single redis key.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	redislib "github.com/redis/go-redis/v9"
)

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Key(parts ...string) string
}

// Store reads and replaces the JSON document stored at one key.
type Store struct {
	client kv
	key    string
}

// New returns a redis document store. key is namespaced by the client, so
// "queue:document" becomes "sq:queue:document".
func New(client kv, key string) (*Store, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis client required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis document key required")
	}
	return &Store{client: client, key: client.Key(strings.Split(key, ":")...)}, nil
}

// Key returns the fully namespaced key.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Load(ctx context.Context) (*queue.Document, error) {
	raw, err := s.client.Get(ctx, s.key)
	if errors.Is(err, redislib.Nil) {
		return queue.NewDocument(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load queue document")
	}

	var doc queue.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode queue document").
			WithDetails(map[string]any{"key": s.key})
	}
	return &doc, nil
}

func (s *Store) Save(ctx context.Context, doc *queue.Document) error {
	if doc == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "queue document required")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode queue document")
	}
	if err := s.client.Set(ctx, s.key, string(body), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save queue document")
	}
	return nil
}
