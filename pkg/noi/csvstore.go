package noi

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// csvHeader is the stable column order of the flat log. Existing logs are
// rejected if their header disagrees; new columns are never inserted in the
// middle.
var csvHeader = []string{
	"Serial No",
	"Date",
	"Supplier Code",
	"Supplier Name",
	"Invoice Reference",
	"Amount",
	"Type",
	"Comment",
	"Invoice File",
	"Submitted At",
	"Submitted By",
}

// CSVStore is the flat-log RecordStore backend: one CSV file, read in full
// and rewritten in full on every append. A single mutex serializes all
// access; without it two concurrent appends could read the same record count
// (duplicating a count-based serial) and the later rewrite would drop the
// earlier row. The rewrite goes to a temp file in the log's directory,
// fsynced, then renamed over the log so readers never observe a partial file.
type CSVStore struct {
	path string
	seq  Sequencer // nil means count-based serials, issued under the lock

	mu  sync.Mutex
	now func() time.Time
}

// NewCSVStore opens (or prepares to create) the flat log at path. With a nil
// sequencer serials are count-based ("CN-001"); otherwise seq is consulted
// inside the append critical section.
func NewCSVStore(path string, seq Sequencer) *CSVStore {
	return &CSVStore{path: path, seq: seq, now: time.Now}
}

func (s *CSVStore) Append(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return Record{}, &StoreError{Op: "append", Err: err}
	}
	if rec.SerialNo == "" {
		if s.seq != nil {
			id, err := s.seq.NextID()
			if err != nil {
				return Record{}, &StoreError{Op: "append", Err: err}
			}
			rec.SerialNo = id
		} else {
			rec.SerialNo = FormatSerial(int64(len(recs)) + 1)
		}
	}
	for _, existing := range recs {
		if existing.SerialNo == rec.SerialNo {
			return Record{}, &StoreError{Op: "append", Err: fmt.Errorf("duplicate serial %s", rec.SerialNo)}
		}
	}
	if rec.InvoiceFile == "" && rec.AttachmentExt != "" {
		rec.InvoiceFile = DeriveFilename(rec.SerialNo, rec.AttachmentExt)
	}
	rec.SubmittedAt = s.now().UTC().Truncate(time.Second)
	recs = append(recs, rec)
	if err := s.rewrite(recs); err != nil {
		return Record{}, &StoreError{Op: "append", Err: err}
	}
	return rec, nil
}

func (s *CSVStore) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return int64(len(recs)), nil
}

func (s *CSVStore) Recent(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	if n <= 0 {
		return nil, nil
	}
	if n < len(recs) {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}

// load reads the whole log. A missing file is an empty log.
func (s *CSVStore) load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows[0]) != len(csvHeader) {
		return nil, fmt.Errorf("log header has %d columns, want %d", len(rows[0]), len(csvHeader))
	}
	recs := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("log row %d: %w", i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// rewrite replaces the log atomically: temp file in the same directory,
// flush, fsync, rename.
func (s *CSVStore) rewrite(recs []Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".noi-log-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range recs {
		if err := w.Write(rowFromRecord(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func rowFromRecord(rec Record) []string {
	return []string{
		rec.SerialNo,
		rec.Date.Format(DateLayout),
		rec.SupplierCode,
		rec.SupplierName,
		rec.InvoiceRef,
		FormatAmount(rec.AmountCents),
		string(rec.Type),
		rec.Comment,
		rec.InvoiceFile,
		rec.SubmittedAt.UTC().Format(time.RFC3339),
		rec.SubmittedBy,
	}
}

func recordFromRow(row []string) (Record, error) {
	if len(row) != len(csvHeader) {
		return Record{}, fmt.Errorf("row has %d columns, want %d", len(row), len(csvHeader))
	}
	date, err := time.Parse(DateLayout, row[1])
	if err != nil {
		return Record{}, fmt.Errorf("date: %w", err)
	}
	cents, err := ParseAmount(row[5])
	if err != nil {
		return Record{}, fmt.Errorf("amount: %w", err)
	}
	submitted, err := time.Parse(time.RFC3339, row[9])
	if err != nil {
		return Record{}, fmt.Errorf("submitted at: %w", err)
	}
	return Record{
		SerialNo:     row[0],
		Date:         date,
		SupplierCode: row[2],
		SupplierName: row[3],
		InvoiceRef:   row[4],
		AmountCents:  cents,
		Type:         NoteType(row[6]),
		Comment:      row[7],
		InvoiceFile:  row[8],
		SubmittedAt:  submitted,
		SubmittedBy:  row[10],
	}, nil
}
