package noi

import (
	"fmt"
	"strings"
)

// allowedExtensions is the upload-time allow-list for attachment files.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AllowedExtension reports whether ext (including the leading dot, any case)
// is an accepted attachment type.
func AllowedExtension(ext string) bool {
	return allowedExtensions[strings.ToLower(ext)]
}

// Validate checks a submission against the portal's required-field rules.
// It is a pure function: no identifier is consumed and nothing is written.
// All violated rules are reported together, in rule order, so the form can
// show every problem at once. A nil return means the submission is acceptable.
func Validate(sub Submission) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(sub.SupplierCode) == "" {
		errs = append(errs, FieldError{Field: "supplier_code", Message: "Supplier Code is required."})
	}
	if strings.TrimSpace(sub.SupplierName) == "" {
		errs = append(errs, FieldError{Field: "supplier_name", Message: "Supplier Name is required."})
	}
	if strings.TrimSpace(sub.InvoiceRef) == "" {
		errs = append(errs, FieldError{Field: "invoice_ref", Message: "Invoice Reference is required."})
	}
	if sub.AmountCents <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "Value must be greater than 0."})
	}
	if sub.Attachment == nil || len(sub.Attachment.Data) == 0 {
		errs = append(errs, FieldError{Field: "attachment", Message: "Please upload the invoice file (PDF or Image)."})
	} else if ext := extOf(sub.Attachment.OriginalName); !AllowedExtension(ext) {
		errs = append(errs, FieldError{
			Field:   "attachment",
			Message: fmt.Sprintf("Unsupported file type %q: allowed types are pdf, jpg, jpeg, png.", strings.TrimPrefix(ext, ".")),
		})
	}
	return errs
}
