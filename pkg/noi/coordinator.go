package noi

import "log"

// Coordinator runs one submission end to end: validate, stage the attachment
// bytes, append the row (which assigns the serial and derives the stored
// filename), then publish the attachment under that name.
//
// Ordering: the attachment bytes are made durable (staged under a temp name)
// before the row commits, so the only step left after commit is a
// same-directory rename. A failure there is surfaced loudly as
// *AttachmentWriteError and is the single inconsistency the reconcile
// pipeline exists to repair.
type Coordinator struct {
	Store       RecordStore
	Attachments *AttachmentStore
}

func NewCoordinator(store RecordStore, attachments *AttachmentStore) *Coordinator {
	return &Coordinator{Store: store, Attachments: attachments}
}

// Submit processes one submission. On validation failure it returns
// ValidationErrors and touches nothing: no serial consumed, no row written,
// no file created. On store failure the staged file is removed and a
// *StoreError returned.
func (c *Coordinator) Submit(sub Submission) (Result, error) {
	if errs := Validate(sub); len(errs) > 0 {
		return Result{}, errs
	}

	staged, err := c.Attachments.Stage(sub.Attachment.Data)
	if err != nil {
		return Result{}, &AttachmentWriteError{Filename: sub.Attachment.OriginalName, Err: err}
	}

	rec, err := c.Store.Append(Record{
		Date:          sub.Date,
		SupplierCode:  sub.SupplierCode,
		SupplierName:  sub.SupplierName,
		InvoiceRef:    sub.InvoiceRef,
		AmountCents:   sub.AmountCents,
		Type:          sub.Type,
		Comment:       sub.Comment,
		SubmittedBy:   sub.SubmittedBy,
		AttachmentExt: extOf(sub.Attachment.OriginalName),
	})
	if err != nil {
		c.Attachments.Discard(staged)
		return Result{}, err
	}

	if err := c.Attachments.Publish(staged, rec.InvoiceFile); err != nil {
		// The row is committed and now references a missing file. Never
		// swallow this: the log line plus the typed error are what the
		// reconcile scan keys on.
		log.Printf("ATTACHMENT MISSING for %s: publish %s failed: %v", rec.SerialNo, rec.InvoiceFile, err)
		return Result{}, &AttachmentWriteError{SerialNo: rec.SerialNo, Filename: rec.InvoiceFile, Err: err}
	}

	return Result{SerialNo: rec.SerialNo, InvoiceFile: rec.InvoiceFile}, nil
}
