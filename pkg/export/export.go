package export

import (
	"fmt"
	"strings"
)

// Format names a supported rendering.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user supplied format; empty defaults to csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Render dispatches the dataset to the matching exporter.
func Render(format Format, data Dataset) ([]byte, error) {
	switch format {
	case FormatPDF:
		return NewPDFExporter().Render(data)
	case FormatCSV:
		return NewCSVExporter().Render(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
