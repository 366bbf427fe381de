package noi

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *CSVStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewCSVStore(filepath.Join(dir, "NOI_log.csv"), nil)
	att := NewAttachmentStore(filepath.Join(dir, "invoices"))
	att.Thumbnails = false
	return NewCoordinator(store, att), store, filepath.Join(dir, "invoices")
}

func TestSubmitFirstRecordOnEmptyStore(t *testing.T) {
	coord, store, dir := newTestCoordinator(t)

	result, err := coord.Submit(Submission{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SupplierCode: "SUP-001",
		SupplierName: "Acme",
		InvoiceRef:   "INV-42",
		AmountCents:  15000,
		Type:         TypeDonation,
		Attachment:   &Attachment{OriginalName: "x.pdf", Data: []byte("%PDF")},
	})
	require.NoError(t, err)
	assert.Equal(t, "CN-001", result.SerialNo)
	assert.Equal(t, "CN-001.pdf", result.InvoiceFile)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// exactly one attachment on disk, named as reported
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CN-001.pdf", entries[0].Name())
}

func TestSubmitSequentialIdentifiersAreDistinct(t *testing.T) {
	coord, _, _ := newTestCoordinator(t)
	sub := func(ref string) Result {
		r, err := coord.Submit(Submission{
			Date:         time.Now(),
			SupplierCode: "S",
			SupplierName: "N",
			InvoiceRef:   ref,
			AmountCents:  100,
			Type:         TypeCreditNotes,
			Attachment:   &Attachment{OriginalName: "a.png", Data: []byte{1}},
		})
		require.NoError(t, err)
		return r
	}
	r1 := sub("INV-1")
	r2 := sub("INV-2")
	assert.NotEqual(t, r1.SerialNo, r2.SerialNo)
}

func TestSubmitRejectionLeavesNoTrace(t *testing.T) {
	coord, store, dir := newTestCoordinator(t)

	_, err := coord.Submit(Submission{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SupplierCode: "SUP-001",
		SupplierName: "Acme",
		InvoiceRef:   "INV-42",
		AmountCents:  0, // invalid
		Type:         TypeDonation,
		Attachment:   &Attachment{OriginalName: "x.pdf", Data: []byte("%PDF")},
	})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "Value must be greater than 0.", verrs[0].Message)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n, "rejected submission must not consume a row")

	if entries, err := os.ReadDir(dir); err == nil {
		assert.Empty(t, entries, "rejected submission must not leave files")
	}
}

func TestSubmitAllMissingFieldsReportedTogether(t *testing.T) {
	coord, store, _ := newTestCoordinator(t)
	_, err := coord.Submit(Submission{})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 5)
	n, _ := store.Count()
	assert.Zero(t, n)
}

type failingStore struct{}

func (failingStore) Append(Record) (Record, error) {
	return Record{}, &StoreError{Op: "append", Err: errors.New("disk full")}
}
func (failingStore) Count() (int64, error)        { return 0, nil }
func (failingStore) Recent(int) ([]Record, error) { return nil, nil }

func TestSubmitStoreFailureDiscardsStagedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "invoices")
	att := NewAttachmentStore(dir)
	att.Thumbnails = false
	coord := NewCoordinator(failingStore{}, att)

	_, err := coord.Submit(Submission{
		Date:         time.Now(),
		SupplierCode: "S",
		SupplierName: "N",
		InvoiceRef:   "I",
		AmountCents:  100,
		Type:         TypeDonation,
		Attachment:   &Attachment{OriginalName: "x.pdf", Data: []byte("%PDF")},
	})
	var serr *StoreError
	require.ErrorAs(t, err, &serr)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "staged temp must be removed after store failure")
}
