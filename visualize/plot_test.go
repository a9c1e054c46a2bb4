package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/calibeval/evaluation"
	"go.viam.com/calibeval/rimage/calibrate"
)

func testResult() *evaluation.CollectionResult {
	return &evaluation.CollectionResult{
		ID:     "3",
		Errors: evaluation.CollectionErrors{RMSErr: 0.7},
		Target: calibrate.CornerSet{
			calibrate.NewCorner(0, 100, 100),
			calibrate.NewCorner(1, 150, 100),
			calibrate.NewCorner(2, 100, 150),
		},
		Transferred: calibrate.CornerSet{
			calibrate.NewCorner(0, 101, 99),
			calibrate.NewCorner(1, 150.5, 100.5),
			calibrate.NewCorner(4, 300, 300),
		},
	}
}

func TestPlotCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "collection_3.png")
	test.That(t, PlotCollection(testResult(), path), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	test.That(t, PlotCollection(nil, path), test.ShouldNotBeNil)
}

func TestPlotErrors(t *testing.T) {
	report := evaluation.NewReport()
	report.Add(testResult())
	second := testResult()
	second.ID = "4"
	second.Errors.RMSErr = 1.4
	report.Add(second)

	path := filepath.Join(t.TempDir(), "errors.png")
	test.That(t, PlotErrors(report, path), test.ShouldBeNil)
	_, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, PlotErrors(evaluation.NewReport(), path), test.ShouldNotBeNil)
}
