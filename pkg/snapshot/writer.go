package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/loam/pkg/kernel"
	"github.com/chazu/loam/pkg/terrain"
	"github.com/gocarina/gocsv"
)

// File names written into the output directory.
const (
	ValuesFile  = "values.csv"
	LatticeFile = "lattice.csv"
	MeshFile    = "mesh.csv"
	StatsFile   = "stats.csv"
)

// Writer handles CSV output into one directory. A nil *Writer is valid
// and discards everything, so callers need not check whether output is
// enabled.
type Writer struct {
	dir       string
	statsFile *os.File

	statsHeaderWritten bool
}

// NewWriter creates the output directory and returns a Writer for it.
// Returns nil if dir is empty (output disabled).
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: creating output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory path.
func (w *Writer) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// WriteTerrain writes the field samples to values.csv and, when s carries
// a lattice, the lattice points and sampled values to lattice.csv.
func (w *Writer) WriteTerrain(s *terrain.Snapshot) error {
	if w == nil {
		return nil
	}
	if err := writeCSV(filepath.Join(w.dir, ValuesFile), ValueRecords(s)); err != nil {
		return err
	}
	if lat := LatticeRecords(s); lat != nil {
		if err := writeCSV(filepath.Join(w.dir, LatticeFile), lat); err != nil {
			return err
		}
	}
	return nil
}

// WriteMesh writes the mesh entries to mesh.csv.
func (w *Writer) WriteMesh(m *kernel.Mesh) error {
	if w == nil {
		return nil
	}
	return writeCSV(filepath.Join(w.dir, MeshFile), VertexRecords(m))
}

// WriteStats appends one row to stats.csv. The header is written with the
// first row.
func (w *Writer) WriteStats(st Stats) error {
	if w == nil {
		return nil
	}
	if w.statsFile == nil {
		f, err := os.Create(filepath.Join(w.dir, StatsFile))
		if err != nil {
			return fmt.Errorf("snapshot: creating %s: %w", StatsFile, err)
		}
		w.statsFile = f
	}

	records := []Stats{st}
	if !w.statsHeaderWritten {
		if err := gocsv.Marshal(records, w.statsFile); err != nil {
			return fmt.Errorf("snapshot: writing stats: %w", err)
		}
		w.statsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.statsFile); err != nil {
		return fmt.Errorf("snapshot: writing stats: %w", err)
	}
	return nil
}

// Close flushes and closes the stats file.
func (w *Writer) Close() error {
	if w == nil || w.statsFile == nil {
		return nil
	}
	err := w.statsFile.Close()
	w.statsFile = nil
	return err
}

func writeCSV(path string, records any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", filepath.Base(path), err)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// ReadValues loads a values.csv written by WriteTerrain.
func ReadValues(path string) ([]ValueRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	var out []ValueRecord
	if err := gocsv.UnmarshalFile(f, &out); err != nil {
		return nil, fmt.Errorf("snapshot: reading %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
