package referenceframe

import "github.com/pkg/errors"

// ErrFrameNotFound is returned when a frame is unknown or no chain of transforms connects two frames.
var ErrFrameNotFound = errors.New("frame not found")

// NewFrameMissingError returns an error indicating that the given frame is not in the graph.
func NewFrameMissingError(name string) error {
	return errors.Wrapf(ErrFrameNotFound, "frame with name %q not in frame graph", name)
}

// NewNoPathError returns an error indicating that the graph has no route between two frames.
func NewNoPathError(parent, child string) error {
	return errors.Wrapf(ErrFrameNotFound, "no chain of transforms from %q to %q", parent, child)
}
