package evaluation

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/calibeval/rimage/calibrate"
	"go.viam.com/calibeval/utils"
)

// PixelErrors summarizes the disagreement between detected and transferred corners.
type PixelErrors struct {
	XErr    float64 // mean |Δx| in pixels
	YErr    float64 // mean |Δy| in pixels
	RMSErr  float64 // root mean square of the Euclidean distances in pixels
	Matched int
}

// PixelError compares the corners detected in the target image with the corners transferred from
// the source. Only ids present in both sets take part.
func PixelError(detected, transferred calibrate.CornerSet) (PixelErrors, error) {
	byID := transferred.ByID()
	var dx, dy, sq []float64
	for _, d := range detected {
		tr, ok := byID[d.ID]
		if !ok {
			continue
		}
		ex, ey := math.Abs(tr.X-d.X), math.Abs(tr.Y-d.Y)
		dx = append(dx, ex)
		dy = append(dy, ey)
		sq = append(sq, utils.Square(ex)+utils.Square(ey))
	}
	if len(sq) == 0 {
		return PixelErrors{}, errors.Wrapf(ErrNoMatchingCorrespondences,
			"%d detected and %d transferred corners", len(detected), len(transferred))
	}
	xErr, err := stats.Mean(dx)
	if err != nil {
		return PixelErrors{}, err
	}
	yErr, err := stats.Mean(dy)
	if err != nil {
		return PixelErrors{}, err
	}
	meanSq, err := stats.Mean(sq)
	if err != nil {
		return PixelErrors{}, err
	}
	return PixelErrors{XErr: xErr, YErr: yErr, RMSErr: math.Sqrt(meanSq), Matched: len(sq)}, nil
}
