// Package export serializes document lists for download.
package export

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"doctrack/internal/model"
)

// Header is the fixed CSV column order.
var Header = []string{
	"Name",
	"Type",
	"Issuing Authority",
	"Expiry Date",
	"Renewal Period (Days)",
	"Notes",
	"Created At",
}

const (
	ContentTypeCSV  = "text/csv;charset=utf-8"
	ContentTypeJSON = "application/json;charset=utf-8"
)

// Row renders one document as CSV cell values (unquoted).
func Row(d model.Document) []string {
	return []string{
		d.Name,
		string(d.DocumentType),
		deref(d.IssuingAuthority),
		d.ExpiryDate.String(),
		strconv.Itoa(d.RenewalPeriod()),
		deref(d.Notes),
		d.CreatedAt.UTC().Format(model.DateLayout),
	}
}

// CSV writes the header row plus one row per document. The header is written
// bare; every data cell is double-quoted with embedded quotes doubled. The whole
// payload is built in memory before the single write.
func CSV(w io.Writer, docs []model.Document) error {
	var b strings.Builder
	b.WriteString(strings.Join(Header, ","))
	for _, d := range docs {
		b.WriteByte('\n')
		for i, cell := range Row(d) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(cell))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// JSON writes the raw document rows as a pretty-printed array.
func JSON(w io.Writer, docs []model.Document) error {
	if docs == nil {
		docs = []model.Document{}
	}
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Filename returns the download name for an export taken at now, e.g. documents_2026-10-16.csv.
func Filename(ext string, now time.Time) string {
	return "documents_" + now.UTC().Format(model.DateLayout) + "." + ext
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
