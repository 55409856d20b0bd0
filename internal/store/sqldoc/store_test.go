package sqldoc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/db"
	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/angelmondragon/songqueue-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../../../pkg/migrate/migrations"

func newMigratedClient(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		Dialect: config.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "queue.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, client.Dialect(), migrationsDir, "up"))
	return client
}

func TestLoadEmptyTable(t *testing.T) {
	store, err := New(newMigratedClient(t), "")
	require.NoError(t, err)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.SongRequests)
	assert.Empty(t, doc.SongRequests)

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestSaveUpsertsSingleRow(t *testing.T) {
	client := newMigratedClient(t)
	store, err := New(client, "")
	require.NoError(t, err)
	ctx := context.Background()

	doc := queue.NewDocument()
	doc.SongRequests = append(doc.SongRequests, queue.SongRequest{
		ID:               "req-1",
		RequesterName:    "Alice",
		SongTitle:        "Song A",
		PaymentReference: "ref1",
		Status:           enums.RequestStatusPending,
		CreatedAt:        time.Date(2026, 10, 17, 21, 0, 0, 0, time.UTC),
	})
	require.NoError(t, store.Save(ctx, doc))

	doc.SongRequests[0].Status = enums.RequestStatusPlayed
	require.NoError(t, store.Save(ctx, doc))

	var rows int64
	require.NoError(t, client.DB().Model(&documentRow{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	version, err := store.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.SongRequests, 1)
	assert.Equal(t, enums.RequestStatusPlayed, loaded.SongRequests[0].Status)
}

func TestDocumentsAreIsolatedByID(t *testing.T) {
	client := newMigratedClient(t)
	first, err := New(client, "event-a")
	require.NoError(t, err)
	second, err := New(client, "event-b")
	require.NoError(t, err)
	ctx := context.Background()

	doc := queue.NewDocument()
	doc.RedeemedPaymentReferences = []string{"ref1"}
	require.NoError(t, first.Save(ctx, doc))

	other, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, other.RedeemedPaymentReferences)
}

func TestLoadFailsWithoutSchema(t *testing.T) {
	client, err := db.New(context.Background(), config.DBConfig{
		Dialect: config.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "empty.db"),
	}, nil)
	require.NoError(t, err)
	defer client.Close()

	store, err := New(client, "")
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), "got %v", err)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, "")
	assert.Error(t, err)
}
