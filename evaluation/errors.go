package evaluation

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoMatchingCorrespondences is returned when the detected and transferred corner sets share no id.
var ErrNoMatchingCorrespondences = errors.New("no matching corner ids")

// Stage names a step of the per-collection evaluation.
type Stage string

// The stages of EvaluateCollection, in execution order.
const (
	StageLoadCorrespondences Stage = "load correspondences"
	StageEstimateSourcePose  Stage = "estimate source pose"
	StageEstimateTargetPose  Stage = "estimate target pose"
	StageBuildHomographies   Stage = "build homographies"
	StageTransferPoints      Stage = "transfer points"
	StagePixelError          Stage = "compute pixel error"
	StagePoseError           Stage = "compute pose error"
)

// StageError records which stage of a collection failed.
type StageError struct {
	CollectionID string
	Stage        Stage
	Err          error
}

func newStageError(id string, stage Stage, err error) *StageError {
	return &StageError{CollectionID: id, Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("collection %q: %s: %v", e.CollectionID, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}
