// Package dataset loads calibration datasets: camera models, the pattern, and per-collection corner
// detections and transforms.
package dataset

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/calibeval/evaluation"
	"go.viam.com/calibeval/referenceframe"
	"go.viam.com/calibeval/rimage/calibrate"
	"go.viam.com/calibeval/rimage/transform"
	"go.viam.com/calibeval/spatialmath"
)

var (
	// ErrSensorNotFound is returned when a configured sensor is not in the dataset.
	ErrSensorNotFound = errors.New("sensor not found")
	// ErrNotDetected marks a collection in which a sensor did not see the pattern.
	ErrNotDetected = errors.New("pattern not detected")
)

// Dataset is a decoded and validated calibration dataset.
type Dataset struct {
	Sensors     map[string]*Sensor
	Collections map[string]*Collection
	Pattern     *calibrate.Pattern
}

// Sensor is a camera of the dataset.
type Sensor struct {
	Name string
	// Frame is the optical frame the camera's detections are expressed in.
	Frame string
	Model *transform.PinholeCameraModel
}

// Collection is one snapshot of the calibration: what each sensor detected and the transform tree
// at that time.
type Collection struct {
	ID     string
	Labels map[string]calibrate.CornerSet
	Links  []referenceframe.Link
}

// Transform returns T_parent_child at the time of the collection.
func (c *Collection) Transform(parent, child string) (spatialmath.RigidTransform, error) {
	return referenceframe.GetTransform(parent, child, c.Links)
}

// Load reads and decodes a dataset file.
func Load(path string) (*Dataset, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read dataset")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "cannot parse dataset %q", path)
	}
	return Decode(raw)
}

// Decode converts a dataset parsed from JSON. Every problem found is reported at once.
func Decode(raw map[string]interface{}) (*Dataset, error) {
	var rd rawDataset
	if err := decodeInto(raw, &rd); err != nil {
		return nil, errors.Wrap(err, "cannot decode dataset")
	}

	ds := &Dataset{Sensors: map[string]*Sensor{}, Collections: map[string]*Collection{}}
	var errs error
	var err error

	p := rd.CalibrationConfig.CalibrationPattern
	ds.Pattern, err = calibrate.NewPattern(p.Dimension.X, p.Dimension.Y, p.Size)
	errs = multierr.Append(errs, errors.Wrap(err, "calibration_pattern"))

	if len(rd.Sensors) == 0 {
		errs = multierr.Append(errs, errors.New("dataset has no sensors"))
	}
	for _, name := range sortedKeys(rd.Sensors) {
		rs := rd.Sensors[name]
		if rs.CameraInfo == nil {
			// Only cameras can be evaluated; other modalities are ignored.
			continue
		}
		sensor, err := decodeSensor(name, rs.CameraInfo)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "sensor %q", name))
			continue
		}
		ds.Sensors[name] = sensor
	}

	for _, id := range sortedKeys(rd.Collections) {
		col, err := decodeCollection(id, rd.Collections[id], ds.Sensors)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "collection %q", id))
			continue
		}
		ds.Collections[id] = col
	}
	if errs != nil {
		return nil, errs
	}
	return ds, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	evaluation.SortCollectionIDs(keys)
	return keys
}

func decodeInto(input, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func decodeSensor(name string, info *rawCameraInfo) (*Sensor, error) {
	switch info.DistortionModel {
	case "", "plumb_bob":
	default:
		return nil, errors.Errorf("unsupported distortion model %q", info.DistortionModel)
	}
	intrinsics, err := transform.NewPinholeCameraIntrinsicsFromMatrix(info.K, info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	distortion, err := transform.NewBrownConradyFromOpenCV(info.D)
	if err != nil {
		return nil, transform.InvalidDistortionError(err.Error())
	}
	model, err := transform.NewPinholeCameraModel(intrinsics, distortion)
	if err != nil {
		return nil, err
	}
	frame := info.Header.FrameID
	if frame == "" {
		return nil, errors.New("camera_info.header.frame_id is required")
	}
	return &Sensor{Name: name, Frame: frame, Model: model}, nil
}

func decodeCollection(id string, rc rawCollection, cameras map[string]*Sensor) (*Collection, error) {
	col := &Collection{ID: id, Labels: map[string]calibrate.CornerSet{}}
	var errs error
	for _, sensor := range sortedKeys(rc.Labels) {
		if _, ok := cameras[sensor]; !ok {
			continue
		}
		var label rawLabel
		if err := decodeInto(rc.Labels[sensor], &label); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "labels of %q", sensor))
			continue
		}
		if !label.Detected || len(label.Idxs) == 0 {
			continue
		}
		corners, err := calibrate.NewCornerSet(lo.Map(label.Idxs, func(c rawCorner, _ int) calibrate.Corner {
			return calibrate.NewCorner(c.ID, c.X, c.Y)
		}))
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "labels of %q", sensor))
			continue
		}
		col.Labels[sensor] = corners
	}
	for _, key := range sortedKeys(rc.Transforms) {
		link, err := decodeLink(key, rc.Transforms[key])
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "transform %q", key))
			continue
		}
		col.Links = append(col.Links, link)
	}
	return col, errs
}

// decodeLink reads a "parent-child" keyed transform. Explicit parent and child fields win over the key.
func decodeLink(key string, rt rawTransform) (referenceframe.Link, error) {
	parent, child := rt.Parent, rt.Child
	if parent == "" || child == "" {
		var ok bool
		if parent, child, ok = strings.Cut(key, "-"); !ok {
			return referenceframe.Link{}, errors.New(`key must be "parent-child" when parent and child are not given`)
		}
	}
	if len(rt.Trans) != 3 {
		return referenceframe.Link{}, errors.Errorf("trans must have 3 elements, got %d", len(rt.Trans))
	}
	if len(rt.Quat) != 4 {
		return referenceframe.Link{}, errors.Errorf("quat must have 4 elements, got %d", len(rt.Quat))
	}
	q := quat.Number{Real: rt.Quat[3], Imag: rt.Quat[0], Jmag: rt.Quat[1], Kmag: rt.Quat[2]}
	if quat.Abs(q) == 0 {
		return referenceframe.Link{}, errors.New("quat must not be zero")
	}
	return referenceframe.Link{
		Parent: parent,
		Child:  child,
		Transform: spatialmath.NewRigidTransform(
			spatialmath.QuatToRotationMatrix(q),
			r3.Vector{X: rt.Trans[0], Y: rt.Trans[1], Z: rt.Trans[2]},
		),
	}, nil
}

// Sensor returns the named camera.
func (d *Dataset) Sensor(name string) (*Sensor, error) {
	s, ok := d.Sensors[name]
	if !ok {
		return nil, errors.Wrapf(ErrSensorNotFound, "no camera named %q, have %v", name, d.SensorNames())
	}
	return s, nil
}

// SensorNames returns the sorted camera names.
func (d *Dataset) SensorNames() []string {
	return sortedKeys(d.Sensors)
}

// CollectionIDs returns the collection ids in report order.
func (d *Dataset) CollectionIDs() []string {
	return sortedKeys(d.Collections)
}

// Inputs builds the evaluation inputs for the configured sensor pair. Collections where either sensor
// did not detect the pattern, or whose transforms cannot relate the frames, are returned in dropped
// with the reason; reasons for missing detections wrap ErrNotDetected. Unknown sensors or collections
// are setup errors.
func (d *Dataset) Inputs(cfg evaluation.Config) ([]evaluation.CollectionInput, map[string]error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	source, err := d.Sensor(cfg.SourceSensor)
	if err != nil {
		return nil, nil, err
	}
	target, err := d.Sensor(cfg.TargetSensor)
	if err != nil {
		return nil, nil, err
	}
	ids := d.CollectionIDs()
	if len(cfg.Collections) > 0 {
		missing, _ := lo.Difference(cfg.Collections, ids)
		if len(missing) > 0 {
			return nil, nil, errors.Errorf("collections %v not in dataset", missing)
		}
		ids = lo.Filter(ids, func(id string, _ int) bool { return cfg.Selects(id) })
	}

	var inputs []evaluation.CollectionInput
	dropped := map[string]error{}
	for _, id := range ids {
		in, err := d.input(d.Collections[id], source, target, cfg.Reference())
		if err != nil {
			dropped[id] = err
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, dropped, nil
}

func (d *Dataset) input(col *Collection, source, target *Sensor, reference string) (evaluation.CollectionInput, error) {
	srcCorners, ok := col.Labels[source.Name]
	if !ok {
		return evaluation.CollectionInput{}, errors.Wrapf(ErrNotDetected, "by %q", source.Name)
	}
	dstCorners, ok := col.Labels[target.Name]
	if !ok {
		return evaluation.CollectionInput{}, errors.Wrapf(ErrNotDetected, "by %q", target.Name)
	}
	fg, err := referenceframe.NewFrameGraphFromLinks(col.ID, col.Links)
	if err != nil {
		return evaluation.CollectionInput{}, err
	}
	targetFromSource, err := fg.Transform(target.Frame, source.Frame)
	if err != nil {
		return evaluation.CollectionInput{}, err
	}
	refFromSource, err := fg.Transform(reference, source.Frame)
	if err != nil {
		return evaluation.CollectionInput{}, err
	}
	refFromTarget, err := fg.Transform(reference, target.Frame)
	if err != nil {
		return evaluation.CollectionInput{}, err
	}
	return evaluation.CollectionInput{
		ID:                  col.ID,
		Source:              srcCorners,
		Target:              dstCorners,
		TargetFromSource:    targetFromSource,
		ReferenceFromSource: refFromSource,
		ReferenceFromTarget: refFromTarget,
	}, nil
}
