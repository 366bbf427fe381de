package noi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SupplierCode: "SUP-001",
		SupplierName: "Acme",
		InvoiceRef:   "INV-42",
		AmountCents:  15000,
		Type:         TypeDonation,
		Attachment:   &Attachment{OriginalName: "x.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	assert.Empty(t, Validate(validSubmission()))
}

func TestValidateReportsAllMissingFieldsTogether(t *testing.T) {
	errs := Validate(Submission{})
	require.Len(t, errs, 5)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{"supplier_code", "supplier_name", "invoice_ref", "amount", "attachment"}, fields)
	assert.Contains(t, errs.Messages(), "Supplier Code is required.")
	assert.Contains(t, errs.Messages(), "Please upload the invoice file (PDF or Image).")
}

func TestValidateZeroAmountIsExactlyOneError(t *testing.T) {
	sub := validSubmission()
	sub.AmountCents = 0
	errs := Validate(sub)
	require.Len(t, errs, 1)
	assert.Equal(t, "Value must be greater than 0.", errs[0].Message)
}

func TestValidateWhitespaceOnlyFieldsAreMissing(t *testing.T) {
	sub := validSubmission()
	sub.SupplierCode = "   "
	sub.InvoiceRef = "\t"
	errs := Validate(sub)
	require.Len(t, errs, 2)
	assert.Equal(t, "supplier_code", errs[0].Field)
	assert.Equal(t, "invoice_ref", errs[1].Field)
}

func TestValidateEmptyAttachmentData(t *testing.T) {
	sub := validSubmission()
	sub.Attachment = &Attachment{OriginalName: "x.pdf"}
	errs := Validate(sub)
	require.Len(t, errs, 1)
	assert.Equal(t, "attachment", errs[0].Field)
}

func TestValidateRejectsDisallowedExtension(t *testing.T) {
	for _, name := range []string{"note.exe", "note.txt", "note", "note.pdf.sh"} {
		sub := validSubmission()
		sub.Attachment.OriginalName = name
		errs := Validate(sub)
		require.Len(t, errs, 1, "name %q", name)
		assert.Equal(t, "attachment", errs[0].Field)
	}
}

func TestValidateAcceptsAllAllowedExtensions(t *testing.T) {
	for _, name := range []string{"a.pdf", "a.jpg", "a.jpeg", "a.png", "a.PDF", "a.JPG"} {
		sub := validSubmission()
		sub.Attachment.OriginalName = name
		assert.Empty(t, Validate(sub), "name %q", name)
	}
}
