// Package visualize draws evaluation results with gonum/plot.
package visualize

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"go.viam.com/calibeval/evaluation"
	"go.viam.com/calibeval/rimage/calibrate"
)

var (
	detectedColor    = color.RGBA{R: 30, G: 140, B: 60, A: 255}
	transferredColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	residualColor    = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

const plotSize = 8 * vg.Inch

func cornerXYs(cs calibrate.CornerSet) plotter.XYs {
	pts := make(plotter.XYs, len(cs))
	for i, c := range cs {
		pts[i] = plotter.XY{X: c.X, Y: c.Y}
	}
	return pts
}

// PlotCollection writes an image of the corners detected by the target camera and the corners
// transferred from the source, joined by their residuals. The file format follows the extension
// of path.
func PlotCollection(result *evaluation.CollectionResult, path string) error {
	if result == nil {
		return errors.New("no collection result to plot")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Collection %s: RMS %.3f px", result.ID, result.Errors.RMSErr)
	p.X.Label.Text = "u (px)"
	p.Y.Label.Text = "v (px)"
	// image rows grow downwards
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	transferredByID := result.Transferred.ByID()
	for _, d := range result.Target {
		tr, ok := transferredByID[d.ID]
		if !ok {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{{X: d.X, Y: d.Y}, {X: tr.X, Y: tr.Y}})
		if err != nil {
			return errors.Wrapf(err, "residual of corner %d", d.ID)
		}
		line.Color = residualColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	detected, err := plotter.NewScatter(cornerXYs(result.Target))
	if err != nil {
		return errors.Wrap(err, "detected corners")
	}
	detected.GlyphStyle = draw.GlyphStyle{Shape: draw.CircleGlyph{}, Color: detectedColor, Radius: vg.Points(3)}
	transferred, err := plotter.NewScatter(cornerXYs(result.Transferred))
	if err != nil {
		return errors.Wrap(err, "transferred corners")
	}
	transferred.GlyphStyle = draw.GlyphStyle{Shape: draw.CrossGlyph{}, Color: transferredColor, Radius: vg.Points(3)}
	p.Add(detected, transferred)
	p.Legend.Add("detected", detected)
	p.Legend.Add("transferred", transferred)
	p.Legend.Top = true

	return save(p, path)
}

// PlotErrors writes a bar chart of the RMS pixel error of every evaluated collection.
func PlotErrors(report *evaluation.Report, path string) error {
	rows := report.Rows()
	if len(rows) == 0 {
		return errors.New("report has no evaluated collections")
	}
	values := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, row := range rows {
		values[i] = row.RMSErr
		names[i] = row.ID
	}
	p := plot.New()
	p.Title.Text = "RMS transfer error per collection"
	p.Y.Label.Text = "RMS (px)"
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return err
	}
	bars.Color = transferredColor
	p.Add(bars)
	p.NominalX(names...)
	if threshold := report.Thresholds.PixelErr; threshold > 0 {
		line, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: threshold}, {X: float64(len(rows)) - 0.5, Y: threshold}})
		if err != nil {
			return err
		}
		line.Color = residualColor
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrap(err, "cannot create plot directory")
	}
	if err := p.Save(plotSize, plotSize*9/16, path); err != nil {
		return errors.Wrapf(err, "cannot save plot %q", path)
	}
	return nil
}
