package noi

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"noiportal/models"
)

// GormStore is the relational RecordStore backend. Identifier assignment is
// delegated to the database: the row's auto-increment primary key becomes
// the serial ("NOI-42"), so concurrent submissions can never collide without
// any locking on our side. A pre-assigned serial (e.g. from a
// TimestampSequencer) is accepted and stored as-is.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the credit_notes table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.CreditNote{})
}

func (s *GormStore) Append(rec Record) (Record, error) {
	row := models.CreditNote{
		SerialNo:     rec.SerialNo,
		Date:         rec.Date,
		SupplierCode: rec.SupplierCode,
		SupplierName: rec.SupplierName,
		InvoiceRef:   rec.InvoiceRef,
		Amount:       rec.AmountCents,
		Type:         string(rec.Type),
		Comment:      rec.Comment,
		InvoiceFile:  rec.InvoiceFile,
		SubmittedBy:  rec.SubmittedBy,
	}
	assign := row.SerialNo == ""
	if !assign && row.InvoiceFile == "" && rec.AttachmentExt != "" {
		row.InvoiceFile = DeriveFilename(row.SerialNo, rec.AttachmentExt)
	}
	if assign {
		// Placeholder keeps the unique index happy until the key is known;
		// both statements commit or roll back together.
		row.SerialNo = "pending-" + uuid.NewString()
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if assign {
			row.SerialNo = fmt.Sprintf("NOI-%d", row.ID)
			if row.InvoiceFile == "" && rec.AttachmentExt != "" {
				row.InvoiceFile = DeriveFilename(row.SerialNo, rec.AttachmentExt)
			}
			return tx.Model(&models.CreditNote{}).Where("id = ?", row.ID).
				Updates(map[string]any{
					"serial_no":    row.SerialNo,
					"invoice_file": row.InvoiceFile,
				}).Error
		}
		return nil
	})
	if err != nil {
		return Record{}, &StoreError{Op: "append", Err: err}
	}
	rec.SerialNo = row.SerialNo
	rec.InvoiceFile = row.InvoiceFile
	rec.SubmittedAt = row.CreatedAt
	return rec, nil
}

func (s *GormStore) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.CreditNote{}).Count(&n).Error; err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *GormStore) Recent(n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []models.CreditNote
	if err := s.db.Order("id desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	// rows are newest-first; flip to append order
	recs := make([]Record, len(rows))
	for i, row := range rows {
		recs[len(rows)-1-i] = recordFromNote(row)
	}
	return recs, nil
}

func recordFromNote(row models.CreditNote) Record {
	return Record{
		SerialNo:     row.SerialNo,
		Date:         row.Date,
		SupplierCode: row.SupplierCode,
		SupplierName: row.SupplierName,
		InvoiceRef:   row.InvoiceRef,
		AmountCents:  row.Amount,
		Type:         NoteType(row.Type),
		Comment:      row.Comment,
		InvoiceFile:  row.InvoiceFile,
		SubmittedAt:  row.CreatedAt,
		SubmittedBy:  row.SubmittedBy,
	}
}
