package dataframe

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// frameWire is the gob shape of a Frame. Cells only hold gob's predeclared
// scalar types, so no extra type registration is needed.
type frameWire struct {
	Cols []Column
	Rows [][]any
}

// Encode serializes the frame with gob.
func Encode(f *Frame) ([]byte, error) {
	var buf bytes.Buffer
	wire := frameWire{Cols: f.cols, Rows: f.rows}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("dataframe: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(payload []byte) (*Frame, error) {
	var wire frameWire
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("dataframe: decode: %w", err)
	}
	return &Frame{cols: wire.Cols, rows: wire.Rows}, nil
}
