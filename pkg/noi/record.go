// Package noi implements the core of the NOI (Notice of Indebtedness) entry
// portal: field validation, credit-note serial assignment, attachment naming
// and the append-only record log with its interchangeable backends.
package noi

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoteType is the fixed document-type enumeration of the portal.
type NoteType string

const (
	TypeDonation      NoteType = "Donation"
	TypeEnlistingFees NoteType = "Enlisting Fees / Access Card Fee"
	TypeCreditNotes   NoteType = "Credit Notes"
	TypeScientific    NoteType = "Scientific Support"
	TypeRTFDeal       NoteType = "RTF Deal"
)

// NoteTypes lists all valid document types in display order.
var NoteTypes = []NoteType{
	TypeDonation,
	TypeEnlistingFees,
	TypeCreditNotes,
	TypeScientific,
	TypeRTFDeal,
}

// ValidNoteType reports whether s is a member of the type enumeration.
func ValidNoteType(s string) bool {
	for _, t := range NoteTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Record is one persisted credit-note entry. Records are append-only: once
// written they are never updated or deleted.
type Record struct {
	SerialNo     string    // unique identifier, assigned after validation
	Date         time.Time // receiving date, calendar precision only
	SupplierCode string
	SupplierName string
	InvoiceRef   string
	AmountCents  int64 // smallest currency unit (e.g. cents)
	Type         NoteType
	Comment      string
	InvoiceFile  string    // stored attachment filename, derived from SerialNo
	SubmittedAt  time.Time // set by the store at append time
	SubmittedBy  string    // verified submitter identity; empty when unauthenticated

	// AttachmentExt is the validated extension of the upload (".pdf"). Not
	// persisted: stores that assign the serial use it to derive InvoiceFile
	// in the same atomic step, since the filename cannot be known before the
	// serial is.
	AttachmentExt string
}

// Attachment is the uploaded supporting file as handed over by the
// presentation layer.
type Attachment struct {
	OriginalName string
	ContentType  string
	Data         []byte
}

// Submission carries the raw field values of one form submission plus the
// attachment blob. The presentation layer type-checks these; business
// validation happens in Validate.
type Submission struct {
	Date         time.Time
	SupplierCode string
	SupplierName string
	InvoiceRef   string
	AmountCents  int64
	Type         NoteType
	Comment      string
	SubmittedBy  string
	Attachment   *Attachment
}

// Result is the success outcome of a submission.
type Result struct {
	SerialNo    string
	InvoiceFile string
}

// DateLayout is the calendar-date serialization used in the log and over HTTP.
const DateLayout = "2006-01-02"

// ParseAmount converts a decimal amount string ("150.00", "150", "150.5")
// into cents. At most two fractional digits are accepted.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	// Reject the sign before splitting: "-0.50" would otherwise lose it in
	// the "-0" whole part and come back positive.
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("invalid amount %q: signed", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := w * 100
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		cents += f
	}
	return cents, nil
}

// FormatAmount renders cents as a two-decimal string, the log's stable
// serialization ("15000" cents -> "150.00").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
