package docparse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/twmarket/chips-cli/internal/model"
)

func TestParseHTMLCollectsAllTables(t *testing.T) {
	html := `
<html><body>
<table>
  <tr><th>指數</th><th>收盤指數</th><th>漲跌點數</th></tr>
  <tr><td>發行量加權股價指數</td><td>23,456.78</td><td>▲123.45</td></tr>
</table>
<table>
  <tr><td>成交金額</td><td>385,000,000,000</td></tr>
</table>
</body></html>`

	grid, err := Parse(&model.RawDocument{Shape: model.ShapeHTMLTable, Body: []byte(html)})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 3)

	cell, ok := grid.Cell(1, 1)
	require.True(t, ok)
	assert.Equal(t, "23,456.78", cell)

	cell, ok = grid.Cell(2, 0)
	require.True(t, ok)
	assert.Equal(t, "成交金額", cell)
}

func TestParseHTMLNormalizesWhitespace(t *testing.T) {
	html := `<table><tr><td>  外資及陸資&nbsp;&nbsp;(不含外資自營商)
	</td><td> 1,234 </td></tr></table>`

	grid, err := Parse(&model.RawDocument{Shape: model.ShapeHTMLTable, Body: []byte(html)})
	require.NoError(t, err)

	cell, ok := grid.Cell(0, 0)
	require.True(t, ok)
	assert.Equal(t, "外資及陸資 (不含外資自營商)", cell)
}

func TestParseHTMLNoTables(t *testing.T) {
	_, err := Parse(&model.RawDocument{Shape: model.ShapeHTMLTable, Body: []byte("<html><body><p>查無資料</p></body></html>")})
	assert.Error(t, err)
}

func TestParseXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("daily")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().SetString("日期")
	header.AddCell().SetString("買賣權未平倉量比率%")

	data := sheet.AddRow()
	data.AddCell().SetString("2026/08/25")
	data.AddCell().SetFloat(0.85)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	grid, err := Parse(&model.RawDocument{Shape: model.ShapeXLSX, Body: buf.Bytes()})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)

	cell, ok := grid.Cell(1, 1)
	require.True(t, ok)
	assert.Equal(t, "0.85", cell)
}

func TestParseXLSXRejectsGarbage(t *testing.T) {
	_, err := Parse(&model.RawDocument{Shape: model.ShapeXLSX, Body: []byte("<html>not a workbook</html>")})
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	body := "TAIWAN VIX\n\n  Last 1 min AVG: 18.42  \n"
	grid, err := Parse(&model.RawDocument{Shape: model.ShapeText, Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)
	assert.Contains(t, grid.Flatten(), "18.42")
}

func TestParseJSONTopLevelArray(t *testing.T) {
	body := []byte(`[{"Close": 23410.0, "Time": "13:45"}, {"Close": 23422.5, "Time": "13:46"}]`)
	grid, err := Parse(&model.RawDocument{Shape: model.ShapeJSONRows, Body: body})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 3)

	// Sorted keys form the header row.
	assert.Equal(t, []string{"Close", "Time"}, grid.Rows[0])
	cell, ok := grid.Cell(2, 0)
	require.True(t, ok)
	assert.Equal(t, "23422.5", cell)
}

func TestParseJSONWrappedArray(t *testing.T) {
	body := []byte(`{"rtCode":"0000","data":[{"收盤價":"23410","商品":"TXF"}]}`)
	grid, err := Parse(&model.RawDocument{Shape: model.ShapeJSONRows, Body: body})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)
	assert.Contains(t, grid.Rows[0], "收盤價")
}

func TestParseJSONNoRows(t *testing.T) {
	_, err := Parse(&model.RawDocument{Shape: model.ShapeJSONRows, Body: []byte(`{"rtCode":"4001"}`)})
	assert.Error(t, err)
}

func TestParseJSONNestedWrappedArray(t *testing.T) {
	body := []byte(`{"RtCode":"0","RtData":{"QuoteList":[{"CDiff":"-120","CLastPrice":"23350","SymbolID":"TXF-M"}]}}`)
	grid, err := Parse(&model.RawDocument{Shape: model.ShapeJSONRows, Body: body})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)
	assert.Equal(t, []string{"CDiff", "CLastPrice", "SymbolID"}, grid.Rows[0])
	cell, ok := grid.Cell(1, 1)
	require.True(t, ok)
	assert.Equal(t, "23350", cell)
}
