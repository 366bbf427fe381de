package noi

// RecordStore is the durable append-only log of submitted records. Two
// interchangeable backends exist: a flat CSV log (CSVStore) and a relational
// table (GormStore). A store assigns SerialNo when the incoming record
// carries none, and always stamps SubmittedAt; both must be durable before
// Append returns.
type RecordStore interface {
	// Append persists one record and returns it with SerialNo and
	// SubmittedAt filled in. Records are never updated afterwards.
	Append(rec Record) (Record, error)

	// Count returns the number of records currently stored.
	Count() (int64, error)

	// Recent returns the last n appended records, oldest first within the
	// tail, so read-back preserves append order.
	Recent(n int) ([]Record, error)
}

// WithSequencer wraps a store so serials come from seq instead of the
// store's own scheme. The sequencer must be safe for the deployment's writer
// count; see SerialSequencer.
func WithSequencer(store RecordStore, seq Sequencer) RecordStore {
	return &sequencedStore{RecordStore: store, seq: seq}
}

type sequencedStore struct {
	RecordStore
	seq Sequencer
}

func (s *sequencedStore) Append(rec Record) (Record, error) {
	if rec.SerialNo == "" {
		id, err := s.seq.NextID()
		if err != nil {
			return Record{}, &StoreError{Op: "append", Err: err}
		}
		rec.SerialNo = id
	}
	return s.RecordStore.Append(rec)
}
