package sheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

//go:generate mockgen -source=source.go -destination=source_mock.go -package=sheet

// Source returns the cells of a data range, in sheet order. Rows may be ragged.
type Source interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

// Range is an A1-style range such as "A3:G" whose upper-left corner anchors
// row numbering and column offsets.
type Range struct {
	Notation    string
	StartColumn Column
	StartRow    int
}

// ParseRange splits "A3:G" into its first column and first row. The row part
// defaults to 1 when omitted ("A:G").
func ParseRange(notation string) (Range, error) {
	notation = strings.ToUpper(strings.TrimSpace(notation))
	if notation == "" {
		return Range{}, fmt.Errorf("empty sheet range")
	}
	start, _, _ := strings.Cut(notation, ":")

	split := strings.IndexFunc(start, func(r rune) bool { return r >= '0' && r <= '9' })
	letters, digits := start, ""
	if split >= 0 {
		letters, digits = start[:split], start[split:]
	}
	col, err := ParseColumn(letters)
	if err != nil {
		return Range{}, fmt.Errorf("invalid sheet range %q: %w", notation, err)
	}
	if col == NoColumn {
		return Range{}, fmt.Errorf("invalid sheet range %q: missing start column", notation)
	}
	row := 1
	if digits != "" {
		row, err = strconv.Atoi(digits)
		if err != nil || row < 1 {
			return Range{}, fmt.Errorf("invalid sheet range %q: bad start row", notation)
		}
	}
	return Range{Notation: notation, StartColumn: col, StartRow: row}, nil
}

// Relative converts an absolute column into an offset inside the range.
func (rg Range) Relative(c Column) (Column, error) {
	if c == NoColumn {
		return NoColumn, nil
	}
	if c < rg.StartColumn {
		return NoColumn, fmt.Errorf("column %d lies left of range %s", c, rg.Notation)
	}
	return c - rg.StartColumn, nil
}
