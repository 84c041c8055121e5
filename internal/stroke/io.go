package stroke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/epicycle/internal/epicycle"
)

// File is the on-disk stroke format. It matches the submission body so a
// saved stroke can be posted as is.
type File struct {
	Points     epicycle.Stroke `json:"points"`
	MaxVectors int             `json:"maxVectors,omitempty"`
}

// Load reads a stroke from either {"points": [...]} or a bare point array.
func Load(r io.Reader) (epicycle.Stroke, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, epicycle.Invalid("empty stroke file")
	}

	if data[0] == '[' {
		var pts epicycle.Stroke
		if err := json.Unmarshal(data, &pts); err != nil {
			return nil, 0, fmt.Errorf("decode stroke: %w", err)
		}
		return pts, 0, nil
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("decode stroke: %w", err)
	}
	return f.Points, f.MaxVectors, nil
}

func Save(w io.Writer, s epicycle.Stroke, maxVectors int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(File{Points: s, MaxVectors: maxVectors})
}
