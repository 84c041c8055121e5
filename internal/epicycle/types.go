package epicycle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Point is one captured sample. T is seconds since the stroke started.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"time"`
}

// Stroke is a chronological sequence of points.
type Stroke []Point

func (s Stroke) Clone() Stroke {
	c := make(Stroke, len(s))
	copy(c, s)
	return c
}

// Duration returns the timestamp of the last point.
func (s Stroke) Duration() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].T
}

// FrequencyVector is one rotating term of the decomposition.
type FrequencyVector struct {
	N         int     `json:"n"`
	Real      float64 `json:"real"`
	Imaginary float64 `json:"imaginary"`
}

// Magnitude is the radius of the circle this vector sweeps.
func (v FrequencyVector) Magnitude() float64 {
	return math.Hypot(v.Real, v.Imaginary)
}

// Phase is the initial angle of the vector at t=0.
func (v FrequencyVector) Phase() float64 {
	return math.Atan2(v.Imaginary, v.Real)
}

type VectorSet []FrequencyVector

func (vs VectorSet) Clone() VectorSet {
	if vs == nil {
		return nil
	}
	c := make(VectorSet, len(vs))
	copy(c, vs)
	return c
}

// Sorted returns a copy ordered by ascending |n|. Ties keep their input order.
func (vs VectorSet) Sorted() VectorSet {
	c := vs.Clone()
	sort.SliceStable(c, func(i, j int) bool {
		return absInt(c[i].N) < absInt(c[j].N)
	})
	return c
}

// IsSorted reports whether |n| never decreases along the set.
func (vs VectorSet) IsSorted() bool {
	for i := 1; i < len(vs); i++ {
		if absInt(vs[i-1].N) > absInt(vs[i].N) {
			return false
		}
	}
	return true
}

// MaxFrequency returns the largest |n| in the set.
func (vs VectorSet) MaxFrequency() int {
	m := 0
	for _, v := range vs {
		if a := absInt(v.N); a > m {
			m = a
		}
	}
	return m
}

// Drawing is a submitted stroke and, once computed, its vectors.
type Drawing struct {
	ID      int       `json:"id"`
	Stroke  Stroke    `json:"points"`
	Vectors VectorSet `json:"vectors"`
}

// Computed reports whether vectors have arrived for the drawing.
func (d *Drawing) Computed() bool {
	return d != nil && len(d.Vectors) > 0
}

// DrawVectors decodes the drawVectors field of a drawing response. The
// service returns either a flat array or an object wrapping the array in
// a "calculated" field; both decode to the same VectorSet.
type DrawVectors struct {
	Vectors VectorSet
	Wrapped bool
}

func (d *DrawVectors) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	d.Vectors, d.Wrapped = nil, false
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '[':
		var vs VectorSet
		if err := json.Unmarshal(data, &vs); err != nil {
			return err
		}
		d.Vectors = vs
		return nil
	case '{':
		var wrapper struct {
			Calculated VectorSet `json:"calculated"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		d.Vectors, d.Wrapped = wrapper.Calculated, true
		return nil
	}
	return fmt.Errorf("drawVectors: unexpected json %q", truncate(data, 32))
}

func (d DrawVectors) MarshalJSON() ([]byte, error) {
	vs := d.Vectors
	if vs == nil {
		vs = VectorSet{}
	}
	if d.Wrapped {
		return json.Marshal(struct {
			Calculated VectorSet `json:"calculated"`
		}{vs})
	}
	return json.Marshal(vs)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
