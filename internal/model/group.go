package model

// DocumentShape identifies how an endpoint's payload should be normalized
// into a grid.
type DocumentShape string

const (
	ShapeHTMLTable DocumentShape = "html_table"
	ShapeXLSX      DocumentShape = "xlsx"
	ShapeText      DocumentShape = "text"
	ShapeJSONRows  DocumentShape = "json_rows"
)

// Endpoint is an immutable request template for one candidate source of a
// metric group. Rank 0 is the primary source; higher ranks are alternatives
// tried strictly in order after the previous rank definitively failed.
type Endpoint struct {
	Name   string        `yaml:"name"`
	Method string        `yaml:"method"`
	URL    string        `yaml:"url"`
	Params map[string]string `yaml:"params,omitempty"`
	Shape  DocumentShape `yaml:"shape"`
	Rank   int           `yaml:"rank"`
	// DateFormat is the Go layout substituted for the {date} placeholder
	// in URL and Params.
	DateFormat string `yaml:"date_format,omitempty"`
	// Encoding overrides charset detection for sources that serve Big5
	// without declaring it ("big5" or empty for UTF-8).
	Encoding string `yaml:"encoding,omitempty"`
}

// ConsistencyGroup declares fields whose components should sum to a stated
// total. The validator repairs a single anomalous component from the total
// and rejects anything worse.
type ConsistencyGroup struct {
	Components []string `yaml:"components"`
	Total      string   `yaml:"total"`
	Epsilon    float64  `yaml:"epsilon"`
}

// MetricGroup is a named cluster of related fields sharing an ordered
// endpoint list. Groups are independent units of fetching and run
// concurrently.
type MetricGroup struct {
	Name        string             `yaml:"name"`
	Endpoints   []Endpoint         `yaml:"endpoints"`
	Fields      []Field            `yaml:"fields"`
	Consistency []ConsistencyGroup `yaml:"consistency,omitempty"`
}
