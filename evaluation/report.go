package evaluation

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Thresholds above which a metric is shown as a failure in the rendered report.
type Thresholds struct {
	PixelErr float64
	TransErr float64
	RotErr   float64
}

// DefaultThresholds are 1 px, 5 mm and 0.5°.
var DefaultThresholds = Thresholds{PixelErr: 1, TransErr: 5, RotErr: 0.5}

// Report collects the results of an evaluation run.
type Report struct {
	Collections map[string]CollectionErrors
	// Results holds the full results in evaluation order.
	Results []*CollectionResult
	// Skipped lists the collections whose evaluation failed, in evaluation order.
	Skipped    []string
	Thresholds Thresholds
}

// Row is one line of the report.
type Row struct {
	ID string
	CollectionErrors
}

// NewReport returns an empty report using DefaultThresholds.
func NewReport() *Report {
	return &Report{Collections: map[string]CollectionErrors{}, Thresholds: DefaultThresholds}
}

// Add records a collection result.
func (r *Report) Add(res *CollectionResult) {
	r.Collections[res.ID] = res.Errors
	r.Results = append(r.Results, res)
}

// Rows returns one row per evaluated collection sorted by id. Numeric ids sort numerically.
func (r *Report) Rows() []Row {
	ids := lo.Keys(r.Collections)
	SortCollectionIDs(ids)
	return lo.Map(ids, func(id string, _ int) Row {
		return Row{ID: id, CollectionErrors: r.Collections[id]}
	})
}

// Averages returns the column-wise mean over all evaluated collections.
func (r *Report) Averages() (CollectionErrors, error) {
	if len(r.Collections) == 0 {
		return CollectionErrors{}, errors.New("no collections were evaluated")
	}
	rows := r.Rows()
	column := func(get func(Row) float64) (float64, error) {
		return stats.Mean(lo.Map(rows, func(row Row, _ int) float64 { return get(row) }))
	}
	var avg CollectionErrors
	var err error
	if avg.XErr, err = column(func(row Row) float64 { return row.XErr }); err != nil {
		return CollectionErrors{}, err
	}
	if avg.YErr, err = column(func(row Row) float64 { return row.YErr }); err != nil {
		return CollectionErrors{}, err
	}
	if avg.RMSErr, err = column(func(row Row) float64 { return row.RMSErr }); err != nil {
		return CollectionErrors{}, err
	}
	if avg.TransErr, err = column(func(row Row) float64 { return row.TransErr }); err != nil {
		return CollectionErrors{}, err
	}
	if avg.RotErr, err = column(func(row Row) float64 { return row.RotErr }); err != nil {
		return CollectionErrors{}, err
	}
	return avg, nil
}

// String renders the report as a table. Values above their threshold are red, the others green.
func (r *Report) String() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Collection", "X err (px)", "Y err (px)", "RMS err (px)", "Trans err (mm)", "Rot err (deg)"})
	for _, row := range r.Rows() {
		t.AppendRow(r.formatRow(row.ID, row.CollectionErrors))
	}
	if avg, err := r.Averages(); err == nil {
		t.AppendSeparator()
		t.AppendFooter(r.formatRow("Averages", avg))
	}
	out := t.Render()
	if len(r.Skipped) > 0 {
		out += fmt.Sprintf("\nskipped collections: %v", r.Skipped)
	}
	return out
}

func (r *Report) formatRow(label string, e CollectionErrors) table.Row {
	return table.Row{
		label,
		colorize(e.XErr, r.Thresholds.PixelErr),
		colorize(e.YErr, r.Thresholds.PixelErr),
		colorize(e.RMSErr, r.Thresholds.PixelErr),
		colorize(e.TransErr, r.Thresholds.TransErr),
		colorize(e.RotErr, r.Thresholds.RotErr),
	}
}

var (
	failColor = color.New(color.FgRed)
	passColor = color.New(color.FgGreen)
)

func colorize(v, threshold float64) string {
	if threshold > 0 && v > threshold {
		return failColor.Sprintf("%.4f", v)
	}
	return passColor.Sprintf("%.4f", v)
}

// SortCollectionIDs sorts ids in place. Numeric ids come first in numeric order, the rest follow
// lexically.
func SortCollectionIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
