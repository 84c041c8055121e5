// Package storage caches drawings on disk, one directory per drawing.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/epicycle/internal/epicycle"
)

const (
	metadataFile = "metadata.json"
	pointsFile   = "points.csv"
	vectorsFile  = "vectors.csv"
	dirPrefix    = "drawing_"
)

type Store struct {
	baseDir string
	now     func() time.Time
	write   func(path string, fill func(io.Writer) error) error
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now, write: writeFile}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type Metadata struct {
	ID           int       `json:"id"`
	SavedAt      time.Time `json:"saved_at"`
	Source       string    `json:"source,omitempty"`
	Points       int       `json:"points"`
	Vectors      int       `json:"vectors"`
	MaxFrequency int       `json:"max_frequency"`
}

func (s *Store) drawingDir(id int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s%d", dirPrefix, id))
}

// Save writes d, replacing any earlier copy. source records where the
// drawing came from, usually the service URL. The files are staged in a
// temporary directory and moved into place only when all of them were
// written, so a failed save never leaves a partial drawing behind.
func (s *Store) Save(d *epicycle.Drawing, source string) (*Metadata, error) {
	if d == nil {
		return nil, epicycle.Invalid("nil drawing")
	}
	if err := s.Init(); err != nil {
		return nil, epicycle.IOFailure("save", d.ID, err)
	}
	tmp, err := os.MkdirTemp(s.baseDir, ".tmp-"+dirPrefix)
	if err != nil {
		return nil, epicycle.IOFailure("save", d.ID, err)
	}

	meta := &Metadata{
		ID:           d.ID,
		SavedAt:      s.now().UTC(),
		Source:       source,
		Points:       len(d.Stroke),
		Vectors:      len(d.Vectors),
		MaxFrequency: d.Vectors.MaxFrequency(),
	}
	if err := s.stage(tmp, d, meta); err != nil {
		os.RemoveAll(tmp)
		return nil, epicycle.IOFailure("save", d.ID, err)
	}

	dir := s.drawingDir(d.ID)
	if err := os.RemoveAll(dir); err != nil {
		os.RemoveAll(tmp)
		return nil, epicycle.IOFailure("save", d.ID, err)
	}
	if err := os.Rename(tmp, dir); err != nil {
		os.RemoveAll(tmp)
		return nil, epicycle.IOFailure("save", d.ID, err)
	}
	return meta, nil
}

func (s *Store) stage(dir string, d *epicycle.Drawing, meta *Metadata) error {
	if err := os.Chmod(dir, 0755); err != nil {
		return err
	}
	if err := s.write(filepath.Join(dir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return err
	}
	if err := s.write(filepath.Join(dir, pointsFile), func(w io.Writer) error {
		return WritePointsCSV(w, d.Stroke)
	}); err != nil {
		return err
	}
	return s.write(filepath.Join(dir, vectorsFile), func(w io.Writer) error {
		return WriteVectorsCSV(w, d.Vectors)
	})
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a cached drawing. A drawing that was never saved yields
// ErrNoDataAvailable.
func (s *Store) Load(id int) (*epicycle.Drawing, *Metadata, error) {
	meta, err := s.Metadata(id)
	if err != nil {
		return nil, nil, err
	}
	dir := s.drawingDir(id)

	d := &epicycle.Drawing{ID: id}
	if d.Stroke, err = readPoints(filepath.Join(dir, pointsFile)); err != nil {
		return nil, nil, epicycle.IOFailure("load", id, err)
	}
	if d.Vectors, err = readVectors(filepath.Join(dir, vectorsFile)); err != nil {
		return nil, nil, epicycle.IOFailure("load", id, err)
	}
	return d, meta, nil
}

func (s *Store) Metadata(id int) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.drawingDir(id), metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &epicycle.OpError{Op: "load", DrawingID: id, Err: epicycle.ErrNoDataAvailable}
	}
	if err != nil {
		return nil, epicycle.IOFailure("load", id, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, epicycle.IOFailure("load", id, err)
	}
	return &meta, nil
}

// List returns every cached drawing, most recently saved first.
// Directories with unreadable metadata are skipped.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	drawings := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), dirPrefix))
		if err != nil {
			continue
		}
		meta, err := s.Metadata(id)
		if err != nil {
			continue
		}
		drawings = append(drawings, *meta)
	}

	sort.SliceStable(drawings, func(i, j int) bool {
		return drawings[i].SavedAt.After(drawings[j].SavedAt)
	})
	return drawings, nil
}

func (s *Store) Delete(id int) error {
	return os.RemoveAll(s.drawingDir(id))
}

func WritePointsCSV(w io.Writer, st epicycle.Stroke) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "time"}); err != nil {
		return err
	}
	for _, p := range st {
		if err := cw.Write([]string{formatFloat(p.X), formatFloat(p.Y), formatFloat(p.T)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteVectorsCSV(w io.Writer, vs epicycle.VectorSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"n", "real", "imaginary"}); err != nil {
		return err
	}
	for _, v := range vs {
		if err := cw.Write([]string{strconv.Itoa(v.N), formatFloat(v.Real), formatFloat(v.Imaginary)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func readRecords(path string, fields int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = fields

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, fields)
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+2, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readPoints(path string) (epicycle.Stroke, error) {
	rows, err := readRecords(path, 3)
	if err != nil {
		return nil, err
	}
	st := make(epicycle.Stroke, len(rows))
	for i, r := range rows {
		st[i] = epicycle.Point{X: r[0], Y: r[1], T: r[2]}
	}
	return st, nil
}

func readVectors(path string) (epicycle.VectorSet, error) {
	rows, err := readRecords(path, 3)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	vs := make(epicycle.VectorSet, len(rows))
	for i, r := range rows {
		vs[i] = epicycle.FrequencyVector{N: int(r[0]), Real: r[1], Imaginary: r[2]}
	}
	return vs, nil
}
