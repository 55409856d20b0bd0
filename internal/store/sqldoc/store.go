// Package sqldoc persists the queue document as a single row in the
// queue_documents table, on postgres or sqlite.
package sqldoc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultDocumentID is the row holding the event's queue.
const DefaultDocumentID = "default"

type documentRow struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Body      string    `gorm:"column:body"`
	Version   int64     `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (documentRow) TableName() string {
	return "queue_documents"
}

// Store reads and upserts one queue_documents row.
type Store struct {
	client *db.Client
	id     string
	now    func() time.Time
}

// New returns a SQL document store. The table is created by the goose
// migrations in pkg/migrate.
func New(client *db.Client, documentID string) (*Store, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if documentID == "" {
		documentID = DefaultDocumentID
	}
	return &Store{client: client, id: documentID, now: time.Now}, nil
}

func (s *Store) Load(ctx context.Context) (*queue.Document, error) {
	var row documentRow
	err := s.client.DB().WithContext(ctx).Where("id = ?", s.id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return queue.NewDocument(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load queue document")
	}

	var doc queue.Document
	if err := json.Unmarshal([]byte(row.Body), &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode queue document").
			WithDetails(map[string]any{"id": s.id, "version": row.Version})
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

	row := documentRow{
		ID:        s.id,
		Body:      string(body),
		Version:   1,
		UpdatedAt: s.now().UTC(),
	}
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"body":       row.Body,
				"updated_at": row.UpdatedAt,
				"version":    gorm.Expr("queue_documents.version + 1"),
			}),
		}).Create(&row).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save queue document")
	}
	return nil
}

// Version returns how many times the document row has been written.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var row documentRow
	err := s.client.DB().WithContext(ctx).Select("version").Where("id = ?", s.id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read queue document version")
	}
	return row.Version, nil
}
