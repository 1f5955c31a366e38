package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure file names, also used as context keys of the results pages.
const (
	figureDataProfile            = "data_profile.png"
	figureExecutionTime          = "execution_time.png"
	figureHistories              = "histories.png"
	figureInfeasibility          = "infeasibility_measure.png"
	figureUnsatisfiedConstraints = "number_of_unsatisfied_constraints.png"
	figurePerformance            = "performance_measure.png"
	figurePerformanceFocus       = "performance_measure_focus.png"
)

const (
	figureWidth  = 6 * vg.Inch
	figureHeight = 4 * vg.Inch
	bandAlpha    = 77 // out of 255
)

const evaluationsLabel = "Number of functions evaluations"

// configurationColor returns the plotting color of the i-th configuration.
// Configurations keep the same color and marker on every figure.
func configurationColor(i int) color.Color {
	return plotutil.Color(i)
}

// configurationGlyph returns the marker of the i-th configuration.
func configurationGlyph(i int) draw.GlyphDrawer {
	return plotutil.Shape(i)
}

func withAlpha(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

// namedSeries is one curve per algorithm configuration. Values are indexed by
// evaluation number (starting at one); NaN marks evaluations without a value,
// such as infeasible records on a performance axis.
type namedSeries struct {
	Name   string
	Values []float64
}

// namedRange is the median curve of a configuration with its min-max band.
type namedRange struct {
	Name   string
	Median []float64
	Min    []float64
	Max    []float64
}

func newFigure(xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = vg.Millimeter
	return p
}

// points builds the XY series of a value slice, skipping NaN entries.
func points(values []float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, value := range values {
		if math.IsNaN(value) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i + 1), Y: value})
	}
	return xys
}

func saveFigure(p *plot.Plot, path string) error {
	if err := p.Save(figureWidth, figureHeight, path); err != nil {
		return fmt.Errorf("failed to save figure %s: %w", path, err)
	}
	return nil
}

// plotDataProfile draws one stepped curve per algorithm configuration.
func plotDataProfile(path string, series []namedSeries) error {
	p := newFigure(evaluationsLabel, "Data profile")
	p.Y.Min, p.Y.Max = 0, 1

	for i, s := range series {
		line, err := plotter.NewLine(points(s.Values))
		if err != nil {
			return fmt.Errorf("failed to plot data profile %s: %w", path, err)
		}
		line.StepStyle = plotter.PostStep
		line.Color = configurationColor(i)

		scatter, err := plotter.NewScatter(points(s.Values))
		if err != nil {
			return fmt.Errorf("failed to plot data profile %s: %w", path, err)
		}
		scatter.GlyphStyle.Shape = configurationGlyph(i)
		scatter.GlyphStyle.Color = configurationColor(i)

		p.Add(line, scatter)
		p.Legend.Add(s.Name, line, scatter)
	}
	return saveFigure(p, path)
}

// plotRanges draws the median curve of each configuration over a shaded
// min-max band. Horizontal dotted lines mark the target values, if any.
func plotRanges(path, yLabel string, ranges []namedRange, targets []float64) error {
	p := newFigure(evaluationsLabel, yLabel)
	if err := addRanges(p, ranges, targets); err != nil {
		return fmt.Errorf("failed to plot %s: %w", path, err)
	}
	return saveFigure(p, path)
}

// plotRangesFocus is plotRanges with the vertical axis restricted to a range,
// used to focus the performance measure on the target values.
func plotRangesFocus(path, yLabel string, ranges []namedRange, targets []float64, yMin, yMax float64) error {
	p := newFigure(evaluationsLabel, yLabel)
	if err := addRanges(p, ranges, targets); err != nil {
		return fmt.Errorf("failed to plot %s: %w", path, err)
	}
	p.Y.Min, p.Y.Max = yMin, yMax
	return saveFigure(p, path)
}

func addRanges(p *plot.Plot, ranges []namedRange, targets []float64) error {
	size := 0
	for i, r := range ranges {
		if len(r.Median) > size {
			size = len(r.Median)
		}

		if band := bandPolygon(r.Min, r.Max); len(band) > 2 {
			polygon, err := plotter.NewPolygon(band)
			if err != nil {
				return err
			}
			polygon.Color = withAlpha(configurationColor(i), bandAlpha)
			polygon.LineStyle.Width = 0
			p.Add(polygon)
		}

		line, err := plotter.NewLine(points(r.Median))
		if err != nil {
			return err
		}
		line.Color = configurationColor(i)
		line.Width = vg.Points(1.5)

		scatter, err := plotter.NewScatter(points(r.Median))
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Shape = configurationGlyph(i)
		scatter.GlyphStyle.Color = configurationColor(i)

		p.Add(line, scatter)
		p.Legend.Add(r.Name, line, scatter)
	}

	for _, target := range targets {
		if math.IsInf(target, 0) || math.IsNaN(target) {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{
			{X: 1, Y: target}, {X: float64(max(size, 2)), Y: target},
		})
		if err != nil {
			return err
		}
		line.Color = color.NRGBA{R: 220, A: 255}
		line.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(line)
	}
	return nil
}

// bandPolygon builds the closed outline of the min-max band, walking the
// maxima forward and the minima backward. Indices without both bounds are
// skipped.
func bandPolygon(minValues, maxValues []float64) plotter.XYs {
	var upper, lower plotter.XYs
	for i := 0; i < len(minValues) && i < len(maxValues); i++ {
		if math.IsNaN(minValues[i]) || math.IsNaN(maxValues[i]) {
			continue
		}
		upper = append(upper, plotter.XY{X: float64(i + 1), Y: maxValues[i]})
		lower = append(lower, plotter.XY{X: float64(i + 1), Y: minValues[i]})
	}
	band := make(plotter.XYs, 0, len(upper)+len(lower))
	band = append(band, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		band = append(band, lower[i])
	}
	return band
}

// plotHistories draws every raw history of every configuration as a thin
// line, one color per configuration.
func plotHistories(path string, series []namedSeries, names []string) error {
	p := newFigure(evaluationsLabel, "Performance measure")

	colorIndex := make(map[string]int, len(names))
	for i, name := range names {
		colorIndex[name] = i
	}
	seen := make(map[string]bool, len(names))
	for _, s := range series {
		line, err := plotter.NewLine(points(s.Values))
		if err != nil {
			return fmt.Errorf("failed to plot histories %s: %w", path, err)
		}
		line.Color = configurationColor(colorIndex[s.Name])
		line.Width = vg.Points(0.5)
		p.Add(line)
		if !seen[s.Name] {
			p.Legend.Add(s.Name, line)
			seen[s.Name] = true
		}
	}
	return saveFigure(p, path)
}

// plotExecutionTime draws the mean execution time of each configuration as a
// bar chart.
func plotExecutionTime(path string, names []string, seconds []float64) error {
	p := newFigure("", "Execution time (s)")

	bars, err := plotter.NewBarChart(plotter.Values(seconds), vg.Points(24))
	if err != nil {
		return fmt.Errorf("failed to plot execution time %s: %w", path, err)
	}
	bars.Color = configurationColor(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.Legend.Top = false
	return saveFigure(p, path)
}
