package docparse

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// parseJSON turns an array of flat objects into a grid with a synthetic
// header row, so the same header-keyword strategy that reads tables also
// reads quote feeds. The array may sit at the top level or nested inside
// wrapper objects; keys are ordered deterministically.
func parseJSON(body []byte) (model.Grid, error) {
	rows, err := jsonRows(body)
	if err != nil {
		return model.Grid{}, err
	}
	if len(rows) == 0 {
		return model.Grid{}, eris.New("docparse: json document has no rows")
	}

	keySet := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			keySet[k] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := model.Grid{Rows: [][]string{keys}}
	for _, r := range rows {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = jsonCell(r[k])
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

func jsonRows(body []byte) ([]map[string]any, error) {
	var direct []map[string]any
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, eris.Wrap(err, "docparse: parse json")
	}
	if rows := findObjectArray(wrapper); rows != nil {
		return rows, nil
	}
	return nil, eris.New("docparse: json document holds no object array")
}

// findObjectArray locates the first array of objects inside a wrapper,
// descending into nested objects. Arrays at the current level win over
// deeper ones.
func findObjectArray(wrapper map[string]json.RawMessage) []map[string]any {
	keys := make([]string, 0, len(wrapper))
	for k := range wrapper {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var nested []map[string]any
		if err := json.Unmarshal(wrapper[k], &nested); err == nil && len(nested) > 0 {
			return nested
		}
	}
	for _, k := range keys {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(wrapper[k], &inner); err == nil && len(inner) > 0 {
			if rows := findObjectArray(inner); rows != nil {
				return rows
			}
		}
	}
	return nil
}

func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
