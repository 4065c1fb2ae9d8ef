package docparse

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// parseText treats each non-empty line as a single-cell row. Plain-text
// feeds are consumed by the whole-document regex strategy, which only
// needs the flattened form, but keeping line structure makes logs and
// tests readable.
func parseText(body []byte) (model.Grid, error) {
	var grid model.Grid
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		grid.Rows = append(grid.Rows, []string{line})
	}
	if grid.Empty() {
		return model.Grid{}, eris.New("docparse: empty text document")
	}
	return grid, nil
}
