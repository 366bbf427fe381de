package noi

import (
	"path/filepath"
	"strings"
)

// extOf returns the extension of a client-supplied filename, including the
// leading dot and preserving case. Only the extension is ever trusted; the
// rest of the name never reaches disk.
func extOf(name string) string {
	return filepath.Ext(filepath.Base(name))
}

// DeriveFilename builds the storage name for a record's attachment from its
// serial number and the extension of the original upload name. It is a pure
// function of (serial, extension): two uploads sharing an extension map to
// the same name for the same serial.
func DeriveFilename(serialNo, originalName string) string {
	return serialNo + extOf(originalName)
}

// serialFromFilename recovers the serial number from a stored attachment
// name, the inverse of DeriveFilename. Used by the reconcile scan.
func serialFromFilename(stored string) string {
	return strings.TrimSuffix(stored, filepath.Ext(stored))
}
