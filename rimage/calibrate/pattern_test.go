package calibrate

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewPattern(t *testing.T) {
	p, err := NewPattern(9, 6, 0.025)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.NumCorners(), test.ShouldEqual, 54)
	test.That(t, p.String(), test.ShouldEqual, "9x6 chessboard, 0.025m squares")

	_, err = NewPattern(1, 6, 0.025)
	test.That(t, err, test.ShouldBeError, errors.New("pattern needs at least 2x2 inner corners, got 1x6"))
	_, err = NewPattern(9, 6, 0)
	test.That(t, err, test.ShouldBeError, errors.New("pattern square size must be positive, got 0"))

	var nilPattern *Pattern
	test.That(t, nilPattern.Validate(), test.ShouldNotBeNil)
}

func TestObjectPoint(t *testing.T) {
	p, err := NewPattern(9, 6, 0.025)
	test.That(t, err, test.ShouldBeNil)

	pt, err := p.ObjectPoint(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt, test.ShouldResemble, r3.Vector{})

	pt, err = p.ObjectPoint(11)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.05)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0.025)
	test.That(t, pt.Z, test.ShouldEqual, 0)

	pt, err = p.ObjectPoint(53)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.2)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0.125)

	_, err = p.ObjectPoint(54)
	test.That(t, errors.Is(err, ErrCornerOutOfRange), test.ShouldBeTrue)
	_, err = p.ObjectPoint(-1)
	test.That(t, errors.Is(err, ErrCornerOutOfRange), test.ShouldBeTrue)

	_, err = p.ObjectPoints(CornerSet{NewCorner(3, 0, 0), NewCorner(99, 0, 0)})
	test.That(t, errors.Is(err, ErrCornerOutOfRange), test.ShouldBeTrue)

	all := p.AllCorners()
	test.That(t, len(all), test.ShouldEqual, 54)
	test.That(t, all[11], test.ShouldResemble, pt11(t, p))
}

func pt11(t *testing.T, p *Pattern) r3.Vector {
	t.Helper()
	pts, err := p.ObjectPoints(CornerSet{NewCorner(11, 0, 0)})
	test.That(t, err, test.ShouldBeNil)
	return pts[0]
}

func TestCornerSet(t *testing.T) {
	_, err := NewCornerSet([]Corner{NewCorner(1, 0, 0), NewCorner(1, 2, 2)})
	test.That(t, err, test.ShouldBeError, errors.New("corner id 1 appears more than once"))

	cs, err := NewCornerSetFromPoints([]int{7, 2, 5}, []r2.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cs.IDs(), test.ShouldResemble, []int{7, 2, 5})
	test.That(t, cs.Points()[1], test.ShouldResemble, r2.Point{X: 3, Y: 4})
	test.That(t, cs.SortedByID().IDs(), test.ShouldResemble, []int{2, 5, 7})
	test.That(t, cs.IDs(), test.ShouldResemble, []int{7, 2, 5})

	byID := cs.ByID()
	test.That(t, AreEqual(byID[5], NewCorner(5, 5, 6)), test.ShouldBeTrue)

	_, err = NewCornerSetFromPoints([]int{1}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
