package docparse

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/twmarket/chips-cli/internal/model"
)

// parseXLSX reads the first sheet of a workbook into a grid. The exchange
// downloads always carry a single sheet.
func parseXLSX(body []byte) (model.Grid, error) {
	f, err := xlsx.OpenBinary(body)
	if err != nil {
		return model.Grid{}, eris.Wrap(err, "docparse: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return model.Grid{}, eris.New("docparse: xlsx has no sheets")
	}

	var grid model.Grid
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if len(cells) > 0 {
			grid.Rows = append(grid.Rows, cells)
		}
	}

	if grid.Empty() {
		return model.Grid{}, eris.New("docparse: xlsx sheet is empty")
	}
	return grid, nil
}
