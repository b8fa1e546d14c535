// Package export implements the export pipeline: fetching entity graphs, shaping
// them into format-agnostic rows, flattening for tabular output, encoding, and
// durably recording every attempt in export history.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one shaped record: field name to scalar or array-of-scalar value. Rows are
// produced by the pipeline's shaping step; every row in a batch carries the same
// key set.
type Row map[string]interface{}

// FlatRow maps column name to a single primitive value suitable for one spreadsheet
// cell. Flat rows never contain arrays or nested objects.
type FlatRow map[string]interface{}

// arrayJoinSeparator joins array-of-scalar values into one cell.
const arrayJoinSeparator = ", "

// Flatten converts shaped rows into flat tabular rows. It is pure and total: the
// same input always yields the same output, and no conforming input can make it
// fail. Rules:
//
//   - scalars pass through unchanged
//   - nil and absent values become "" (tabular formats have no null)
//   - time.Time values become RFC 3339 strings
//   - arrays of scalars are joined with ", " after dropping empty entries
//
// The column set is taken from the first row; callers are responsible for shaping
// every row to an identical key set beforehand. Applying Flatten to already-flat
// rows is a no-op.
func Flatten(rows []Row) []FlatRow {
	if len(rows) == 0 {
		return []FlatRow{}
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}

	out := make([]FlatRow, 0, len(rows))
	for _, row := range rows {
		flat := make(FlatRow, len(columns))
		for _, col := range columns {
			flat[col] = flattenValue(row[col])
		}
		out = append(out, flat)
	}
	return out
}

// flattenValue reduces one shaped value to a single primitive.
func flattenValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool, int, int32, int64, float32, float64:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []string:
		return joinScalars(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, cellString(flattenValue(item)))
		}
		return joinScalars(parts)
	default:
		// Out-of-contract values (pointers, structs) are stringified rather than
		// rejected: Flatten must stay total.
		return fmt.Sprint(val)
	}
}

// joinScalars joins non-empty entries with the fixed separator.
func joinScalars(values []string) string {
	nonEmpty := make([]string, 0, len(values))
	for _, s := range values {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, arrayJoinSeparator)
}

// cellString renders one flat value as text for CSV/TXT/XLS cells.
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
