// Package export writes analysis tables to the interchange formats the
// dashboard offers for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/biorempp/biorempp/internal/dataframe"
	"github.com/biorempp/biorempp/internal/errs"
)

// WriteCSV streams the frame as CSV with a header row. Nil cells become empty
// fields.
func WriteCSV(w io.Writer, frame *dataframe.Frame) error {
	if frame == nil {
		return errs.Validationf("export: frame required")
	}
	cw := csv.NewWriter(w)

	cols := frame.Columns()
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	record := make([]string, len(cols))
	for i := 0; i < frame.NumRows(); i++ {
		for j, cell := range frame.Row(i) {
			record[j] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// WriteJSON streams the frame as an array of row objects keyed by column
// name.
func WriteJSON(w io.Writer, frame *dataframe.Frame) error {
	if frame == nil {
		return errs.Validationf("export: frame required")
	}
	rows := make([]map[string]any, frame.NumRows())
	for i := range rows {
		rows[i] = frame.RowMap(i)
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
