package model

import (
	"strings"
	"time"
)

// RawDocument is the unparsed payload returned by the fetch adapter for one
// endpoint attempt.
type RawDocument struct {
	Endpoint  string
	Shape     DocumentShape
	Body      []byte
	FetchedAt time.Time
}

// Grid is the uniform grid-of-cells abstraction every document shape is
// normalized into. Rows may be ragged.
type Grid struct {
	Rows [][]string
}

// Cell returns the trimmed cell at (row, col) and whether it exists.
func (g Grid) Cell(row, col int) (string, bool) {
	if row < 0 || row >= len(g.Rows) {
		return "", false
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return "", false
	}
	return strings.TrimSpace(r[col]), true
}

// Empty reports whether the grid holds no rows.
func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

// Flatten joins all cells into one text blob for whole-document regex
// scans, preserving row order.
func (g Grid) Flatten() string {
	var b strings.Builder
	for _, row := range g.Rows {
		b.WriteString(strings.Join(row, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// RowText returns the joined text of one row, used for section and
// selector matching.
func (g Grid) RowText(row int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	return strings.Join(g.Rows[row], " ")
}
