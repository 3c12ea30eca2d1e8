// internal/domain/sheet/row.go
package sheet

import (
	"fmt"
	"strings"
	"unicode"
)

// Status is the normalised review state of a tracked item.
type Status string

const (
	StatusOpen     Status = "open"
	StatusInReview Status = "in review"
	StatusDone     Status = "done"
)

// ParseStatus maps a free-text cell onto a Status. Anything unrecognised is open.
func ParseStatus(text string) Status {
	switch strings.ToLower(strings.Join(strings.Fields(text), " ")) {
	case "done":
		return StatusDone
	case "in review":
		return StatusInReview
	default:
		return StatusOpen
	}
}

// Column is a 0-based cell offset. NoColumn marks a field the sheet does not carry.
type Column int

const NoColumn Column = -1

// ParseColumn reads a spreadsheet column letter ("A", "E", "AB") into an offset.
// An empty string yields NoColumn.
func ParseColumn(letters string) (Column, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return NoColumn, nil
	}
	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return NoColumn, fmt.Errorf("invalid column %q", letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return Column(n - 1), nil
}

// Layout tells where each field lives, as offsets into the fetched range.
type Layout struct {
	Assignee  Column
	Reviewer  Column
	ETA       Column
	Secondary Column
	Status    Column
}

// DefaultLayout matches the tracker sheet: initials in C, reviewer in D,
// ETA in E, secondary flag in F and status in G.
var DefaultLayout = Layout{Assignee: 2, Reviewer: 3, ETA: 4, Secondary: 5, Status: 6}

// Row is one spreadsheet line with trimmed cells.
type Row struct {
	Number int // 1-based line number in the sheet
	cells  []string
	layout Layout
}

// NewRow normalises raw cells once: every cell is trimmed, and cells past the
// end of a short row read as empty strings.
func NewRow(number int, raw []string, layout Layout) Row {
	cells := make([]string, len(raw))
	for i, c := range raw {
		cells[i] = strings.TrimSpace(c)
	}
	return Row{Number: number, cells: cells, layout: layout}
}

func (r Row) cell(c Column) string {
	if c < 0 || int(c) >= len(r.cells) {
		return ""
	}
	return r.cells[c]
}

func (r Row) Assignee() string  { return FirstInitials(r.cell(r.layout.Assignee)) }
func (r Row) Reviewer() string  { return FirstInitials(r.cell(r.layout.Reviewer)) }
func (r Row) ETA() string       { return r.cell(r.layout.ETA) }
func (r Row) Secondary() string { return r.cell(r.layout.Secondary) }
func (r Row) Status() Status    { return ParseStatus(r.cell(r.layout.Status)) }

// RawAssignee is the assignee cell as typed, for log messages.
func (r Row) RawAssignee() string { return r.cell(r.layout.Assignee) }

// FirstInitials returns the first identity code in a cell such as "cf, DI",
// upper-cased. Commas and whitespace separate codes.
func FirstInitials(cell string) string {
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
