package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biorempp/biorempp/internal/dataframe"
)

func exportFrame(t *testing.T) *dataframe.Frame {
	t.Helper()
	frame := dataframe.New(
		dataframe.Column{Name: "compound", Type: dataframe.TypeString},
		dataframe.Column{Name: "count", Type: dataframe.TypeInt},
		dataframe.Column{Name: "ratio", Type: dataframe.TypeFloat},
	)
	require.NoError(t, frame.AppendRow("atrazine", 4, 0.25))
	require.NoError(t, frame.AppendRow("benzene", 7, nil))
	return frame
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFrame(t)))

	assert.Equal(t, "compound,count,ratio\natrazine,4,0.25\nbenzene,7,\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exportFrame(t)))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "atrazine", rows[0]["compound"])
	assert.Equal(t, float64(4), rows[0]["count"])
	assert.Nil(t, rows[1]["ratio"])
}

func TestWritersRejectNilFrame(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteCSV(&buf, nil))
	require.Error(t, WriteJSON(&buf, nil))
}
