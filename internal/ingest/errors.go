package ingest

import "fmt"

// supportedFormats is the fixed set of accepted upload extensions.
var supportedFormats = []string{".csv", ".xlsx", ".xls", ".pdf"}

// UnsupportedFormatError indicates an upload with an extension outside the
// supported set.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: supported formats are .csv, .xlsx, .xls, .pdf", e.Ext)
}

// EmptyFileError indicates a zero-byte upload.
type EmptyFileError struct {
	Filename string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("uploaded file %q is empty", e.Filename)
}

// EmptyDataError indicates a parse that produced no rows or no columns.
type EmptyDataError struct {
	Filename string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("file %q contains no tabular data", e.Filename)
}
