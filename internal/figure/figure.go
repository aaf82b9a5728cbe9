// Package figure models charts as plain serializable data: a list of traces
// plus layout options. Cached payloads are always this structural form, never
// a live rendering object, so the caches stay decoupled from whatever library
// eventually draws the chart.
package figure

import (
	"encoding/json"
	"fmt"
)

// Trace is one data series of a chart.
type Trace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	X           []any     `json:"x,omitempty"`
	Y           []any     `json:"y,omitempty"`
	Z           [][]float64 `json:"z,omitempty"`
	Text        []string  `json:"text,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
	Colorscale  string    `json:"colorscale,omitempty"`
}

// Axis captures per-axis layout options.
type Axis struct {
	Title string `json:"title,omitempty"`
}

// Layout holds chart-wide presentation options.
type Layout struct {
	Title      string `json:"title,omitempty"`
	XAxis      Axis   `json:"xaxis,omitempty"`
	YAxis      Axis   `json:"yaxis,omitempty"`
	BarMode    string `json:"barmode,omitempty"`
	ShowLegend bool   `json:"showlegend,omitempty"`
}

// Figure is the structural representation of a rendered chart.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Marshal serializes the figure to its canonical JSON form.
func Marshal(f *Figure) ([]byte, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("figure: marshal: %w", err)
	}
	return payload, nil
}

// Unmarshal reconstructs a figure from its JSON form.
func Unmarshal(payload []byte) (*Figure, error) {
	var f Figure
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("figure: unmarshal: %w", err)
	}
	return &f, nil
}
