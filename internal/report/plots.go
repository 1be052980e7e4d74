package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
)

var (
	beforeColor = color.RGBA{R: 214, G: 96, B: 77, A: 255}
	afterColor  = color.RGBA{R: 49, G: 104, B: 142, A: 255}
)

// lengthPoints returns the defined samples of lengths as frame/length
// pairs.
func lengthPoints(lengths []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(lengths))
	for f, l := range lengths {
		if math.IsNaN(l) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(f), Y: l})
	}
	return pts
}

// fileSafe maps a bone name onto something usable in a file name.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// PlotBoneLengths writes one PNG per bone in before to dir, plotting the
// per-frame length before and (when present in after) after enforcement.
// It returns the number of plots written.
func PlotBoneLengths(dir string, before, after *rigidity.Statistics) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	count := 0
	for i, b := range before.Bones() {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s (%s -> %s)", b.Name, b.Head, b.Tail)
		p.X.Label.Text = "Frame"
		p.Y.Label.Text = "Length (m)"

		if err := addLengthLine(p, "before", b.Lengths, beforeColor); err != nil {
			return count, fmt.Errorf("bone %s: %w", b.Name, err)
		}
		if a, ok := after.Get(b.Name); ok {
			if err := addLengthLine(p, "after", a.Lengths, afterColor); err != nil {
				return count, fmt.Errorf("bone %s: %w", b.Name, err)
			}
		}

		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		file := filepath.Join(dir, fmt.Sprintf("%02d_%s.png", i, fileSafe(b.Name)))
		if err := p.Save(10*vg.Inch, 4*vg.Inch, file); err != nil {
			return count, fmt.Errorf("save %s plot: %w", b.Name, err)
		}
		count++
	}
	return count, nil
}

func addLengthLine(p *plot.Plot, label string, lengths []float64, c color.Color) error {
	pts := lengthPoints(lengths)
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
