package trajectory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/mocap.rigidity/internal/units"
	"gonum.org/v1/gonum/spatial/r3"
)

// FrameColumn is the optional leading column carrying the frame index.
const FrameColumn = "frame"

var axisSuffixes = [3]string{"_x", "_y", "_z"}

// parseCell decodes one numeric cell. Empty cells and "nan" in any case
// are missing samples.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// readAll reads a header row and all data rows, rejecting ragged input.
func readAll(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty CSV")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}
	return header, rows, nil
}

// ReadCSV decodes a trajectory CSV whose header holds an optional "frame"
// column followed by "<marker>_x, <marker>_y, <marker>_z" triples. Values
// are converted from unit to meters.
func ReadCSV(r io.Reader, unit string) (*Set, error) {
	scale, err := units.MetersPerUnit(unit)
	if err != nil {
		return nil, err
	}

	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	start := 0
	if len(header) > 0 && strings.TrimSpace(header[0]) == FrameColumn {
		start = 1
	}
	cols := header[start:]
	if len(cols) == 0 || len(cols)%3 != 0 {
		return nil, fmt.Errorf("expected marker _x/_y/_z column triples, got %d columns", len(cols))
	}

	names := make([]string, 0, len(cols)/3)
	for i := 0; i < len(cols); i += 3 {
		var name string
		for axis, suffix := range axisSuffixes {
			col := strings.TrimSpace(cols[i+axis])
			base, ok := strings.CutSuffix(col, suffix)
			if !ok || base == "" {
				return nil, fmt.Errorf("column %d: %q does not end in %q", start+i+axis+1, col, suffix)
			}
			if axis == 0 {
				name = base
			} else if base != name {
				return nil, fmt.Errorf("column %d: %q does not belong to marker %q", start+i+axis+1, col, name)
			}
		}
		names = append(names, name)
	}

	set := NewSet(len(rows))
	series := make([][]r3.Vec, len(names))
	for m, name := range names {
		series[m] = make([]r3.Vec, len(rows))
		if err := set.Add(name, series[m]); err != nil {
			return nil, err
		}
	}

	for f, row := range rows {
		for m := range names {
			var xyz [3]float64
			for axis := 0; axis < 3; axis++ {
				v, err := parseCell(row[start+m*3+axis])
				if err != nil {
					return nil, fmt.Errorf("row %d, marker %q: %w", f+2, names[m], err)
				}
				xyz[axis] = v * scale
			}
			series[m][f] = r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		}
	}
	return set, nil
}

// WriteCSV encodes set in meters with a leading frame column and markers in
// sorted order. Missing samples are written as empty cells.
func WriteCSV(w io.Writer, set *Set) error {
	names := set.Names()
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+3*len(names))
	header = append(header, FrameColumn)
	for _, name := range names {
		for _, suffix := range axisSuffixes {
			header = append(header, name+suffix)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for f := 0; f < set.Frames(); f++ {
		row[0] = strconv.Itoa(f)
		for m, name := range names {
			p := set.Positions(name)[f]
			row[1+m*3] = formatCell(p.X)
			row[2+m*3] = formatCell(p.Y)
			row[3+m*3] = formatCell(p.Z)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadErrorCSV decodes a tracking-error CSV: an optional "frame" column
// followed by one column per marker.
func ReadErrorCSV(r io.Reader) (*ErrorSet, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	start := 0
	if len(header) > 0 && strings.TrimSpace(header[0]) == FrameColumn {
		start = 1
	}
	names := header[start:]
	if len(names) == 0 {
		return nil, fmt.Errorf("error CSV has no marker columns")
	}

	es := NewErrorSet(len(rows))
	series := make([][]float64, len(names))
	for m, name := range names {
		series[m] = make([]float64, len(rows))
		if err := es.Add(strings.TrimSpace(name), series[m]); err != nil {
			return nil, err
		}
	}
	for f, row := range rows {
		for m := range names {
			v, err := parseCell(row[start+m])
			if err != nil {
				return nil, fmt.Errorf("row %d, marker %q: %w", f+2, names[m], err)
			}
			series[m][f] = v
		}
	}
	return es, nil
}

// LoadCSV reads a trajectory CSV file.
func LoadCSV(path, unit string) (*Set, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory file: %w", err)
	}
	defer f.Close()

	set, err := ReadCSV(f, unit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// LoadErrorCSV reads a tracking-error CSV file.
func LoadErrorCSV(path string) (*ErrorSet, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open error file: %w", err)
	}
	defer f.Close()

	es, err := ReadErrorCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return es, nil
}

// SaveCSV writes set to path, creating parent directories as needed.
func SaveCSV(path string, set *Set) error {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create trajectory file: %w", err)
	}
	if err := WriteCSV(f, set); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trajectory file: %w", err)
	}
	return f.Close()
}
