// encode.go serializes shaped rows into the four supported output formats. Tabular
// formats (CSV, TXT, XLS) are fed through Flatten; JSON keeps the shaped rows as-is
// under a key named after the export type (e.g. {"works": [...]}).
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/portfolio-cms/portfolio-cms/internal/db/models"
)

// ErrInvalidFormat is returned when the requested format is not one of the four
// recognized kinds. Format validation happens at the pipeline boundary, before any
// history record is created.
var ErrInvalidFormat = errors.New("invalid export format")

// xlsBOM is the UTF-8 byte order mark. Excel needs it to detect UTF-8 in
// tab-separated files; without it accented characters are garbled on open.
var xlsBOM = []byte{0xEF, 0xBB, 0xBF}

// ValidFormat reports whether format is one of the recognized export formats.
func ValidFormat(format string) bool {
	switch format {
	case models.ExportFormatJSON, models.ExportFormatCSV, models.ExportFormatTXT, models.ExportFormatXLS:
		return true
	}
	return false
}

// IsTabular reports whether the format requires flattened rows.
func IsTabular(format string) bool {
	return format != models.ExportFormatJSON
}

// Encode serializes rows in the given format. key names the JSON payload's top-level
// array; columns fixes the column order for tabular output.
func Encode(format, key string, columns []string, rows []Row) ([]byte, error) {
	switch format {
	case models.ExportFormatJSON:
		return encodeJSON(key, rows)
	case models.ExportFormatCSV:
		return encodeCSV(columns, Flatten(rows))
	case models.ExportFormatTXT:
		return encodeTSV(columns, Flatten(rows), nil)
	case models.ExportFormatXLS:
		return encodeTSV(columns, Flatten(rows), xlsBOM)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

func encodeJSON(key string, rows []Row) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	payload := map[string]interface{}{key: rows}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return data, nil
}

func encodeCSV(columns []string, rows []FlatRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeTSV writes tab-separated values with a header line. TXT and XLS share this
// encoding; XLS additionally carries a UTF-8 BOM so Excel opens it correctly.
func encodeTSV(columns []string, rows []FlatRow, prefix []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(prefix)

	buf.WriteString(strings.Join(columns, "\t"))
	buf.WriteByte('\n')

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			// Tabs and newlines inside a cell would break the row structure.
			cell := cellString(row[col])
			cell = strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(cell)
			cells[i] = cell
		}
		buf.WriteString(strings.Join(cells, "\t"))
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ContentType returns the MIME type for serving a payload of the given format.
func ContentType(format string) string {
	switch format {
	case models.ExportFormatJSON:
		return "application/json"
	case models.ExportFormatCSV:
		return "text/csv"
	case models.ExportFormatTXT:
		return "text/plain; charset=utf-8"
	case models.ExportFormatXLS:
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the download filename extension for the given format.
func FileExtension(format string) string {
	switch format {
	case models.ExportFormatJSON:
		return "json"
	case models.ExportFormatCSV:
		return "csv"
	case models.ExportFormatTXT:
		return "txt"
	case models.ExportFormatXLS:
		return "xls"
	default:
		return "bin"
	}
}
