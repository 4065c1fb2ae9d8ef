package docparse

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// parseHTML flattens every <table> in the page into one grid, in document
// order. The exchange pages split a logical table across several <table>
// elements (caption, header, body), so keeping them all preserves both
// the header rows and the section banners the selectors key on.
func parseHTML(body []byte) (model.Grid, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.Grid{}, eris.Wrap(err, "docparse: parse html")
	}

	var grid model.Grid
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		// Nested tables are re-visited by the outer Each; only take the
		// rows that belong directly to this table.
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if !sameNode(closestTable(tr), table) {
				return
			}
			var row []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				if !sameNode(closestRow(cell), tr) {
					return
				}
				row = append(row, cleanCell(cell.Text()))
			})
			if len(row) > 0 {
				grid.Rows = append(grid.Rows, row)
			}
		})
	})

	if grid.Empty() {
		return model.Grid{}, eris.New("docparse: no table rows in html document")
	}
	return grid, nil
}

func closestTable(s *goquery.Selection) *goquery.Selection {
	return s.Closest("table")
}

func closestRow(s *goquery.Selection) *goquery.Selection {
	return s.Closest("tr")
}

func sameNode(a, b *goquery.Selection) bool {
	if a.Length() == 0 || b.Length() == 0 {
		return false
	}
	return a.Get(0) == b.Get(0)
}

// cleanCell collapses the whitespace runs and non-breaking spaces the
// exchange markup is full of.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
