package figure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	fig := &Figure{
		Data: []Trace{
			{Type: "bar", Name: "S1", X: []any{"K00001", "K00002"}, Y: []any{float64(12), float64(3)}},
			{Type: "heatmap", Z: [][]float64{{1, 2}, {3, 4}}, Colorscale: "Viridis"},
		},
		Layout: Layout{
			Title:   "Gene counts",
			XAxis:   Axis{Title: "KO"},
			YAxis:   Axis{Title: "Count"},
			BarMode: "group",
		},
	}

	payload, err := Marshal(fig)
	require.NoError(t, err)

	decoded, err := Unmarshal(payload)
	require.NoError(t, err)
	assert.Equal(t, fig, decoded)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	require.Error(t, err)
}
