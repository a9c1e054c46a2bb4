package evaluation

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/calibeval/logging"
	"go.viam.com/calibeval/rimage/calibrate"
	"go.viam.com/calibeval/rimage/transform"
	"go.viam.com/calibeval/spatialmath"
	"go.viam.com/calibeval/utils"
)

// CollectionInput is everything known about one calibration collection.
type CollectionInput struct {
	ID     string
	Source calibrate.CornerSet
	Target calibrate.CornerSet
	// TargetFromSource is the calibrated extrinsic under evaluation, T_target_source.
	TargetFromSource spatialmath.RigidTransform
	// ReferenceFromSource and ReferenceFromTarget place each sensor in the reference frame.
	ReferenceFromSource spatialmath.RigidTransform
	ReferenceFromTarget spatialmath.RigidTransform
}

// CollectionErrors are the per-collection metrics.
type CollectionErrors struct {
	XErr     float64 `json:"x_err_px"`
	YErr     float64 `json:"y_err_px"`
	RMSErr   float64 `json:"rms_err_px"`
	TransErr float64 `json:"trans_err_mm"`
	RotErr   float64 `json:"rot_err_deg"`
}

// CollectionResult carries the metrics of a collection along with the data behind them.
type CollectionResult struct {
	ID     string
	Errors CollectionErrors
	// Matched is the number of corner ids shared by the target detections and the transferred corners.
	Matched int

	Source      calibrate.CornerSet
	Target      calibrate.CornerSet
	Transferred calibrate.CornerSet

	SourceFromPattern spatialmath.RigidTransform
	TargetFromPattern spatialmath.RigidTransform
}

// Evaluator runs the evaluation for a fixed pair of cameras and a pattern.
type Evaluator struct {
	pattern     *calibrate.Pattern
	sourceModel *transform.PinholeCameraModel
	targetModel *transform.PinholeCameraModel
	logger      logging.Logger
}

// NewEvaluator validates the setup and returns an Evaluator.
func NewEvaluator(
	pattern *calibrate.Pattern,
	sourceModel, targetModel *transform.PinholeCameraModel,
	logger logging.Logger,
) (*Evaluator, error) {
	if err := pattern.Validate(); err != nil {
		return nil, err
	}
	if sourceModel == nil {
		return nil, transform.NewNoIntrinsicsError("source camera model is missing")
	}
	if targetModel == nil {
		return nil, transform.NewNoIntrinsicsError("target camera model is missing")
	}
	if err := sourceModel.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "source camera")
	}
	if err := targetModel.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "target camera")
	}
	return &Evaluator{pattern: pattern, sourceModel: sourceModel, targetModel: targetModel, logger: logger}, nil
}

// EvaluateCollection runs every stage for one collection in order. The first failing stage ends the
// evaluation with a *StageError.
func (e *Evaluator) EvaluateCollection(in CollectionInput) (*CollectionResult, error) {
	fail := func(stage Stage, err error) (*CollectionResult, error) {
		return nil, newStageError(in.ID, stage, err)
	}

	if len(in.Source) == 0 || len(in.Target) == 0 {
		return fail(StageLoadCorrespondences, errors.Wrapf(transform.ErrNoPoints,
			"%d source and %d target corners", len(in.Source), len(in.Target)))
	}
	sourceObjects, err := e.pattern.ObjectPoints(in.Source)
	if err != nil {
		return fail(StageLoadCorrespondences, errors.Wrap(err, "source"))
	}
	targetObjects, err := e.pattern.ObjectPoints(in.Target)
	if err != nil {
		return fail(StageLoadCorrespondences, errors.Wrap(err, "target"))
	}

	sourceFromPattern, err := transform.SolvePnP(sourceObjects, in.Source.Points(), e.sourceModel)
	if err != nil {
		return fail(StageEstimateSourcePose, err)
	}
	targetFromPattern, err := transform.SolvePnP(targetObjects, in.Target.Points(), e.targetModel)
	if err != nil {
		return fail(StageEstimateTargetPose, err)
	}
	e.logger.Debugw("estimated pattern poses", "collection", in.ID,
		"source_translation", sourceFromPattern.Translation, "target_translation", targetFromPattern.Translation)

	// The target homography comes from the calibration under test, not from the target's own PnP.
	hs := transform.NewSensorHomography(e.sourceModel.PinholeCameraIntrinsics, sourceFromPattern)
	ht := transform.NewSensorHomography(e.targetModel.PinholeCameraIntrinsics,
		spatialmath.Compose(in.TargetFromSource, sourceFromPattern))
	hst, err := transform.CrossSensorHomography(ht, hs)
	if err != nil {
		return fail(StageBuildHomographies, err)
	}

	transferredPoints, err := transform.TransferPoints(in.Source.Points(), e.sourceModel, e.targetModel, hst)
	if err != nil {
		return fail(StageTransferPoints, err)
	}
	transferred, err := calibrate.NewCornerSetFromPoints(in.Source.IDs(), transferredPoints)
	if err != nil {
		return fail(StageTransferPoints, err)
	}

	pixelErrs, err := PixelError(in.Target, transferred)
	if err != nil {
		return fail(StagePixelError, err)
	}

	transErr, rotErr := PoseError(
		spatialmath.Compose(in.ReferenceFromSource, sourceFromPattern),
		spatialmath.Compose(in.ReferenceFromTarget, targetFromPattern),
	)
	if !utils.IsFinite(transErr, rotErr) {
		return fail(StagePoseError, errors.Wrap(transform.ErrDegenerateGeometry, "pose error is not finite"))
	}

	return &CollectionResult{
		ID: in.ID,
		Errors: CollectionErrors{
			XErr:     pixelErrs.XErr,
			YErr:     pixelErrs.YErr,
			RMSErr:   pixelErrs.RMSErr,
			TransErr: transErr,
			RotErr:   rotErr,
		},
		Matched:           pixelErrs.Matched,
		Source:            in.Source,
		Target:            in.Target,
		Transferred:       transferred,
		SourceFromPattern: sourceFromPattern,
		TargetFromPattern: targetFromPattern,
	}, nil
}

// Evaluate runs all collections concurrently. Collections that fail are logged and listed in
// Report.Skipped. Only cancellation of ctx makes Evaluate itself fail.
func (e *Evaluator) Evaluate(ctx context.Context, inputs []CollectionInput) (*Report, error) {
	results := make([]*CollectionResult, len(inputs))
	failures := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.ParallelFactor)
	for i := range inputs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], failures[i] = e.EvaluateCollection(inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := NewReport()
	for i, in := range inputs {
		if failures[i] != nil {
			var stageErr *StageError
			stage := Stage("")
			if errors.As(failures[i], &stageErr) {
				stage = stageErr.Stage
			}
			e.logger.Warnw("skipping collection", "collection", in.ID, "stage", string(stage), "error", failures[i])
			report.Skipped = append(report.Skipped, in.ID)
			continue
		}
		report.Add(results[i])
	}
	e.logger.Infow("evaluation done", "evaluated", len(report.Results), "skipped", len(report.Skipped))
	return report, nil
}
