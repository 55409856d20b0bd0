package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/songqueue-backend/pkg/errors"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	store, err := New(path, time.Second)
	require.NoError(t, err)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.SongRequests)
	assert.NotNil(t, doc.SongRequests)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"songRequests":[],"redeemedPaymentReferences":[]}`, string(raw))
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := New(path, time.Second)
	require.NoError(t, err)

	created := time.Date(2026, 10, 17, 21, 30, 0, 0, time.UTC)
	doc := queue.NewDocument()
	doc.SongRequests = append(doc.SongRequests, queue.SongRequest{
		ID:               "req-1",
		RequesterName:    "Alice",
		SongTitle:        "Song A",
		PaymentReference: "ref1",
		Status:           enums.RequestStatusPending,
		Order:            0,
		CreatedAt:        created,
	})
	doc.RedeemedPaymentReferences = append(doc.RedeemedPaymentReferences, "ref1")

	require.NoError(t, store.Save(context.Background(), doc))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.SongRequests, 1)
	assert.Equal(t, "Alice", loaded.SongRequests[0].RequesterName)
	assert.True(t, loaded.SongRequests[0].CreatedAt.Equal(created))
	assert.Equal(t, []string{"ref1"}, loaded.RedeemedPaymentReferences)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".db-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temp file should be renamed away")
}

func TestLoadLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	legacy := `{
  "songRequests": [
    {"id":"1715","name":"Anonymous","songTitle":"Dancing Queen","timestamp":"2024-05-01T21:00:00.000Z","paymentReference":"pr_1","status":"pending","order":0}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store, err := New(path, time.Second)
	require.NoError(t, err)
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.SongRequests, 1)
	assert.Equal(t, enums.RequestStatusPending, doc.SongRequests[0].Status)
	assert.Nil(t, doc.RedeemedPaymentReferences, "store does not interpret the document")
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := New(path, time.Second)
	require.NoError(t, err)
	_, err = store.Load(context.Background())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), "got %v", err)
}

func TestLoadTreatsEmptyFileAsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	store, err := New(path, time.Second)
	require.NoError(t, err)
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.SongRequests)
}

func TestSaveTimesOutWhenLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	store, err := New(path, 100*time.Millisecond)
	require.NoError(t, err)
	err = store.Save(context.Background(), queue.NewDocument())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), "got %v", err)
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New("", time.Second)
	assert.Error(t, err)
}

func TestConcurrentSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := New(path, 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, singleRequestDoc("seed")))

	const workers, rounds = 8, 50
	errs := make(chan error, 2*workers*rounds)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				errs <- store.Save(ctx, singleRequestDoc(fmt.Sprintf("ref-%d-%d", w, i)))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				doc, err := store.Load(ctx)
				if err == nil && len(doc.SongRequests) != 1 {
					err = fmt.Errorf("partial document with %d requests", len(doc.SongRequests))
				}
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".db-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func singleRequestDoc(ref string) *queue.Document {
	doc := queue.NewDocument()
	doc.SongRequests = append(doc.SongRequests, queue.SongRequest{
		ID:               ref,
		RequesterName:    "Alice",
		SongTitle:        "Song",
		PaymentReference: ref,
		Status:           enums.RequestStatusPending,
	})
	doc.RedeemedPaymentReferences = append(doc.RedeemedPaymentReferences, ref)
	return doc
}
