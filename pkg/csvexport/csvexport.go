// Package csvexport renders tabular exports with CRLF line endings.
package csvexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

const ContentType = "text/csv; charset=utf-8"

// Write encodes the header and rows as CSV.
func Write(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns "<prefix>-YYYY-MM-DD.csv" for the given day.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.UTC().Format("2006-01-02"))
}

// Date formats an optional date column; nil renders empty.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// Timestamp formats a timestamp column as RFC3339.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// String dereferences an optional text column.
func String(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// File is a rendered export ready to be served as an attachment.
type File struct {
	Filename string
	Data     []byte
}
