// Package calibrate describes calibration patterns and the corners detected on them.
package calibrate

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Corner is a detected pattern corner. ID indexes the corner in its pattern and X, Y are distorted
// pixel coordinates.
type Corner struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// NewCorner creates a new corner.
func NewCorner(id int, x, y float64) Corner {
	return Corner{ID: id, X: x, Y: y}
}

// Point returns the pixel location of the corner.
func (c Corner) Point() r2.Point {
	return r2.Point{X: c.X, Y: c.Y}
}

// AreEqual is a simple equality test for corners. If all fields are equal, same corner.
func AreEqual(a, b Corner) bool {
	return a.ID == b.ID && a.X == b.X && a.Y == b.Y
}

// CornerSet is the ordered list of corners one sensor detected in one collection. IDs are unique.
type CornerSet []Corner

// NewCornerSet builds a set from corners, rejecting repeated ids.
func NewCornerSet(corners []Corner) (CornerSet, error) {
	seen := make(map[int]struct{}, len(corners))
	for _, c := range corners {
		if _, ok := seen[c.ID]; ok {
			return nil, errors.Errorf("corner id %d appears more than once", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return CornerSet(corners), nil
}

// NewCornerSetFromPoints pairs ids with pixels in order.
func NewCornerSetFromPoints(ids []int, points []r2.Point) (CornerSet, error) {
	if len(ids) != len(points) {
		return nil, errors.Errorf("got %d ids for %d points", len(ids), len(points))
	}
	return NewCornerSet(lo.Map(points, func(p r2.Point, i int) Corner {
		return NewCorner(ids[i], p.X, p.Y)
	}))
}

// Points returns the pixel locations in set order.
func (cs CornerSet) Points() []r2.Point {
	return lo.Map(cs, func(c Corner, _ int) r2.Point { return c.Point() })
}

// IDs returns the corner ids in set order.
func (cs CornerSet) IDs() []int {
	return lo.Map(cs, func(c Corner, _ int) int { return c.ID })
}

// ByID indexes the corners by id.
func (cs CornerSet) ByID() map[int]Corner {
	return lo.KeyBy(cs, func(c Corner) int { return c.ID })
}

// SortedByID returns a copy of the set ordered by increasing id.
func (cs CornerSet) SortedByID() CornerSet {
	out := make(CornerSet, len(cs))
	copy(out, cs)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
