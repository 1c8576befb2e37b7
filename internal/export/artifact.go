// Package export renders stored statement lines into the XML submission
// file and the auxiliary spreadsheet.
package export

import (
	"errors"
	"fmt"
)

// Format identifies an output format
type Format string

const (
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// Content types of the rendered files
const (
	ContentTypeXML  = "application/xml"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrNilReadModel is returned when a renderer receives no data
var ErrNilReadModel = errors.New("read model is required")

// Artifact is a fully rendered output file
type Artifact struct {
	Format      Format
	FileName    string
	ContentType string
	Content     []byte
}

// XMLFileName returns the submission file name for the period.
func XMLFileName(year, month int) string {
	return fmt.Sprintf("KVDPH_%d_MESIAC_%d.XML", year, month)
}

// XLSXFileName returns the spreadsheet file name for the period.
func XLSXFileName(year, month int) string {
	return fmt.Sprintf("KV_DPHS_%d_%d.xlsx", year, month)
}
