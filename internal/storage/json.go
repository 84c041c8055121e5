package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/epicycle/internal/epicycle"
)

// ExportData is the self-contained JSON form of a drawing.
type ExportData struct {
	ID           int                `json:"id"`
	Points       epicycle.Stroke    `json:"points"`
	Vectors      epicycle.VectorSet `json:"vectors"`
	MaxFrequency int                `json:"max_frequency"`
}

func WriteJSON(w io.Writer, d *epicycle.Drawing) error {
	data := ExportData{
		ID:           d.ID,
		Points:       d.Stroke,
		Vectors:      d.Vectors,
		MaxFrequency: d.Vectors.MaxFrequency(),
	}
	if data.Points == nil {
		data.Points = epicycle.Stroke{}
	}
	if data.Vectors == nil {
		data.Vectors = epicycle.VectorSet{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
