// Package sheet maps the entry collections to and from the flat
// comma-delimited text format stored in the remote spreadsheet
// document. The format is deliberately simple: no quoting, literal
// commas inside values are replaced with semicolons on encode and not
// recovered on decode.
package sheet

import (
	"strings"
	"time"

	"github.com/nhle/habitlog/internal/model"
)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05"
	timestampLayout = "2006-01-02 15:04:05"
)

// baseHeaders are the fixed leading columns; custom columns follow in
// definition order.
var baseHeaders = []string{"Date", "Time", "Reason", "Notes"}

// Encode renders entries as CSV. One row per entry: date, time (local,
// second granularity, no timezone marker), category name, notes, then
// one cell per defined custom column using the entry's value for that
// column name, empty if absent. Custom fields whose key matches no
// defined column are not exported.
func Encode(entries []model.HabitEntry, columns []model.CustomColumn) []byte {
	var b strings.Builder

	b.WriteString(strings.Join(baseHeaders, ","))
	for _, col := range columns {
		b.WriteByte(',')
		b.WriteString(col.Name)
	}
	b.WriteByte('\n')

	for _, e := range entries {
		b.WriteString(e.Date.Format(dateLayout))
		b.WriteByte(',')
		b.WriteString(e.Date.Format(timeLayout))
		b.WriteByte(',')
		b.WriteString(e.Category.Name)
		b.WriteByte(',')
		b.WriteString(escape(e.Notes))

		for _, col := range columns {
			b.WriteByte(',')
			if v, ok := e.CustomFields[col.Name]; ok {
				b.WriteString(escape(v.Display()))
			}
		}
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// Result is the outcome of decoding a document.
type Result struct {
	// Entries holds the decoded entries in file order, unsorted. Each
	// entry gets a fresh ID; the format carries none.
	Entries []model.HabitEntry

	// NewCategories are categories synthesized for reason cells that
	// matched no known category case-insensitively. The caller is
	// expected to register them.
	NewCategories []model.HabitCategory
}

// Decode parses a CSV document against the caller's current category
// list and custom column definitions.
//
// Column positions are resolved by header name, with "Category"
// accepted as an alias for "Reason" and fixed positions 0/1/3 as the
// fallback for Date/Time/Notes. Rows with fewer than four cells,
// unparseable timestamps, or a missing date, time, or reason cell are
// skipped. Custom column cells are unescaped (semicolons back to
// commas) and always decoded as text values, regardless of the
// column's declared type; boolean typing does not survive import.
func Decode(data []byte, categories []model.HabitCategory, columns []model.CustomColumn) Result {
	var res Result

	lines := splitLines(string(data))
	if len(lines) < 2 {
		// Empty document or header only.
		return res
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	dateIdx := headerIndex(headers, "Date", 0)
	timeIdx := headerIndex(headers, "Time", 1)
	reasonIdx := headerIndex(headers, "Reason", -1)
	if reasonIdx < 0 {
		reasonIdx = headerIndex(headers, "Category", 2)
	}
	notesIdx := headerIndex(headers, "Notes", 3)

	known := make([]model.HabitCategory, len(categories))
	copy(known, categories)

	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")
		if len(cells) < 4 {
			continue
		}

		dateCell := cell(cells, dateIdx)
		timeCell := cell(cells, timeIdx)
		reasonCell := cell(cells, reasonIdx)
		if dateCell == "" || timeCell == "" || reasonCell == "" {
			continue
		}

		date, err := time.ParseInLocation(timestampLayout, dateCell+" "+timeCell, time.Local)
		if err != nil {
			continue
		}

		category, ok := model.FindCategory(known, reasonCell)
		if !ok {
			category = model.NewCategory(reasonCell)
			known = append(known, category)
			res.NewCategories = append(res.NewCategories, category)
		}

		var fields map[string]model.CustomFieldValue
		for _, col := range columns {
			idx := headerIndex(headers, col.Name, -1)
			if idx < 0 || idx >= len(cells) {
				continue
			}
			if fields == nil {
				fields = make(map[string]model.CustomFieldValue)
			}
			fields[col.Name] = model.TextValue(unescape(cells[idx]))
		}

		res.Entries = append(res.Entries, model.NewEntry(date, category, cell(cells, notesIdx), fields))
	}

	return res
}

// splitLines splits on newlines and drops empty lines.
func splitLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// headerIndex returns the position of name in headers, or fallback if
// absent. Duplicate headers resolve to the first occurrence.
func headerIndex(headers []string, name string, fallback int) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return fallback
}

// cell returns cells[idx] or "" when idx is out of range.
func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func escape(s string) string {
	return strings.ReplaceAll(s, ",", ";")
}

func unescape(s string) string {
	return strings.ReplaceAll(s, ";", ",")
}
