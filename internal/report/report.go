// Package report renders the run summary: how many objects of each category
// were generated and what the mass cap did to them.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"mjset/internal/catalog"
)

// Categories tabulates the tally by category, every category listed even when empty.
func Categories(t *catalog.Tally) *Table {
	tbl := NewTable(fmt.Sprintf("Printing categories of %d objects:", t.Total), "category", "num", "%")
	for _, c := range catalog.Categories {
		tbl.AddRow(c, strconv.Itoa(t.Counts[c]), strconv.FormatFloat(t.Share(c), 'f', 1, 64))
	}
	return tbl
}

// MassLine is the one-line mass report. Masses are printed in grams.
func MassLine(t *catalog.Tally) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The biggest mass was %.0fg for the object: %s", t.Biggest*1e3, t.BiggestLabel)
	if t.CapExceeded() {
		fmt.Fprintf(&sb, ", but mass capped at %.0fg. %d objects had mass capped", t.Cap.Max*1e3, t.Capped)
	}
	fmt.Fprintf(&sb, ". The average mass was %.1fg", t.Mean()*1e3)
	return sb.String()
}

// Summary is the category table followed by the mass line.
func Summary(t *catalog.Tally, styles Styles) string {
	if t == nil || t.Total == 0 {
		return "No objects generated\n"
	}
	return Categories(t).View(styles) + "\n" + MassLine(t) + "\n"
}
