package noi

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "noi.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// single connection: sqlite is a one-writer database and returns BUSY
	// errors instead of queueing otherwise
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	store := NewGormStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestGormStoreAssignsSerialFromKey(t *testing.T) {
	store := newTestGormStore(t)

	r1, err := store.Append(testRecord("INV-1"))
	require.NoError(t, err)
	r2, err := store.Append(testRecord("INV-2"))
	require.NoError(t, err)

	assert.Equal(t, "NOI-1", r1.SerialNo)
	assert.Equal(t, "NOI-2", r2.SerialNo)
	assert.Equal(t, "NOI-1.pdf", r1.InvoiceFile)
	assert.False(t, r1.SubmittedAt.IsZero(), "store must stamp SubmittedAt")

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestGormStoreAcceptsPreAssignedSerial(t *testing.T) {
	store := newTestGormStore(t)
	rec := testRecord("INV-1")
	rec.SerialNo = "NOI-20240101120000"
	out, err := store.Append(rec)
	require.NoError(t, err)
	assert.Equal(t, "NOI-20240101120000", out.SerialNo)
	assert.Equal(t, "NOI-20240101120000.pdf", out.InvoiceFile)
}

func TestGormStoreRoundTrip(t *testing.T) {
	store := newTestGormStore(t)
	in := testRecord("INV-7")
	written, err := store.Append(in)
	require.NoError(t, err)

	recs, err := store.Recent(5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	assert.Equal(t, written.SerialNo, got.SerialNo)
	assert.Equal(t, in.SupplierCode, got.SupplierCode)
	assert.Equal(t, in.AmountCents, got.AmountCents)
	assert.Equal(t, in.Type, got.Type)
	assert.Equal(t, written.InvoiceFile, got.InvoiceFile)
	assert.Equal(t, in.SubmittedBy, got.SubmittedBy)
	assert.Equal(t, in.Date.Format(DateLayout), got.Date.Format(DateLayout))
}

func TestGormStoreRecentTailOrder(t *testing.T) {
	store := newTestGormStore(t)
	for i := 1; i <= 5; i++ {
		_, err := store.Append(testRecord(fmt.Sprintf("INV-%d", i)))
		require.NoError(t, err)
	}
	recs, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "INV-3", recs[0].InvoiceRef)
	assert.Equal(t, "INV-5", recs[2].InvoiceRef)
}

func TestGormStoreConcurrentAppendsDistinctSerials(t *testing.T) {
	store := newTestGormStore(t)

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]bool{}
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := store.Append(testRecord(fmt.Sprintf("INV-%d", i)))
			if err != nil {
				t.Errorf("append %d: %v", i, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[rec.SerialNo], "serial %s issued twice", rec.SerialNo)
			seen[rec.SerialNo] = true
		}(i)
	}
	wg.Wait()
	assert.Len(t, seen, writers)
}

func TestWithSequencerPreAssignsSerials(t *testing.T) {
	store := newTestGormStore(t)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	wrapped := WithSequencer(store, &TimestampSequencer{Now: func() time.Time { return at }})

	r1, err := wrapped.Append(testRecord("INV-1"))
	require.NoError(t, err)
	r2, err := wrapped.Append(testRecord("INV-2"))
	require.NoError(t, err)
	assert.Equal(t, "NOI-20240101120000", r1.SerialNo)
	assert.Equal(t, "NOI-20240101120001", r2.SerialNo)
}
