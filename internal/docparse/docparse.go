// Package docparse normalizes every fetched payload shape into the
// uniform grid the extraction chain operates on. A payload the parser
// cannot read is a definitive endpoint failure, reported as an error so
// the caller can fall through to the next ranked source.
package docparse

import (
	"github.com/rotisserie/eris"

	"github.com/twmarket/chips-cli/internal/model"
)

// Parse dispatches on the document shape.
func Parse(doc *model.RawDocument) (model.Grid, error) {
	switch doc.Shape {
	case model.ShapeHTMLTable:
		return parseHTML(doc.Body)
	case model.ShapeXLSX:
		return parseXLSX(doc.Body)
	case model.ShapeText:
		return parseText(doc.Body)
	case model.ShapeJSONRows:
		return parseJSON(doc.Body)
	default:
		return model.Grid{}, eris.Errorf("docparse: unknown shape %q", doc.Shape)
	}
}
