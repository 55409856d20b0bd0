// Package store selects and instruments the queue document store.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/internal/store/jsonfile"
	"github.com/angelmondragon/songqueue-backend/internal/store/redisdoc"
	"github.com/angelmondragon/songqueue-backend/internal/store/sqldoc"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/db"
	"github.com/angelmondragon/songqueue-backend/pkg/metrics"
	"github.com/angelmondragon/songqueue-backend/pkg/redis"
)

// Deps carries the connections a driver may need. Only the one matching
// the configured driver has to be set.
type Deps struct {
	DB    *db.Client
	Redis *redis.Client
}

// Open builds the store for cfg.Driver.
func Open(cfg config.StoreConfig, deps Deps) (queue.Store, error) {
	var (
		s   queue.Store
		err error
	)
	switch cfg.Driver {
	case config.StoreDriverFile:
		s, err = jsonfile.New(cfg.FilePath, cfg.LockTimeout)
	case config.StoreDriverSQL:
		if deps.DB == nil {
			return nil, fmt.Errorf("sql store requires a database client")
		}
		s, err = sqldoc.New(deps.DB, sqldoc.DefaultDocumentID)
	case config.StoreDriverRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		s, err = redisdoc.New(deps.Redis, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// instrumented times every Load and Save.
type instrumented struct {
	next    queue.Store
	metrics *metrics.QueueMetrics
}

// WithMetrics wraps s so each call is recorded on m.
func WithMetrics(s queue.Store, m *metrics.QueueMetrics) queue.Store {
	if m == nil {
		return s
	}
	return &instrumented{next: s, metrics: m}
}

func (i *instrumented) Load(ctx context.Context) (*queue.Document, error) {
	start := time.Now()
	doc, err := i.next.Load(ctx)
	i.metrics.ObserveStore("load", time.Since(start), err)
	return doc, err
}

func (i *instrumented) Save(ctx context.Context, doc *queue.Document) error {
	start := time.Now()
	err := i.next.Save(ctx, doc)
	i.metrics.ObserveStore("save", time.Since(start), err)
	return err
}

// Pinger adapts a store into a readiness check by loading the document.
type Pinger struct {
	Store queue.Store
}

func (p Pinger) Ping(ctx context.Context) error {
	_, err := p.Store.Load(ctx)
	return err
}
