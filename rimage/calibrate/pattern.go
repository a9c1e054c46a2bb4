package calibrate

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrCornerOutOfRange is returned when a corner id does not index into the pattern.
var ErrCornerOutOfRange = errors.New("corner id out of pattern range")

// Pattern is a chessboard described by its inner corner counts and square size in metres.
// Corner id = row*NX + col sits at (col*SquareSize, row*SquareSize, 0) in the pattern frame.
type Pattern struct {
	NX         int     `json:"nx"`
	NY         int     `json:"ny"`
	SquareSize float64 `json:"size"`
}

// NewPattern validates and returns a pattern.
func NewPattern(nx, ny int, squareSize float64) (*Pattern, error) {
	p := &Pattern{NX: nx, NY: ny, SquareSize: squareSize}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that the pattern has a usable geometry.
func (p *Pattern) Validate() error {
	if p == nil {
		return errors.New("pattern is not configured")
	}
	if p.NX < 2 || p.NY < 2 {
		return errors.Errorf("pattern needs at least 2x2 inner corners, got %dx%d", p.NX, p.NY)
	}
	if !(p.SquareSize > 0) {
		return errors.Errorf("pattern square size must be positive, got %v", p.SquareSize)
	}
	return nil
}

// NumCorners returns the number of inner corners.
func (p *Pattern) NumCorners() int {
	return p.NX * p.NY
}

// ObjectPoint returns the pattern-frame position of the corner with the given id.
func (p *Pattern) ObjectPoint(id int) (r3.Vector, error) {
	if id < 0 || id >= p.NumCorners() {
		return r3.Vector{}, errors.Wrapf(ErrCornerOutOfRange, "id %d not in [0, %d)", id, p.NumCorners())
	}
	row, col := id/p.NX, id%p.NX
	return r3.Vector{X: float64(col) * p.SquareSize, Y: float64(row) * p.SquareSize}, nil
}

// ObjectPoints returns the pattern-frame positions of the given corners, in order.
func (p *Pattern) ObjectPoints(corners CornerSet) ([]r3.Vector, error) {
	out := make([]r3.Vector, len(corners))
	for i, c := range corners {
		pt, err := p.ObjectPoint(c.ID)
		if err != nil {
			return nil, err
		}
		out[i] = pt
	}
	return out, nil
}

// AllCorners returns every object point of the pattern ordered by id.
func (p *Pattern) AllCorners() []r3.Vector {
	out := make([]r3.Vector, 0, p.NumCorners())
	for id := 0; id < p.NumCorners(); id++ {
		pt, _ := p.ObjectPoint(id)
		out = append(out, pt)
	}
	return out
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%dx%d chessboard, %gm squares", p.NX, p.NY, p.SquareSize)
}
