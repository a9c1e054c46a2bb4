package dataset

// The raw types mirror the on-disk JSON layout and are only used while decoding.

type rawDataset struct {
	CalibrationConfig rawCalibrationConfig     `json:"calibration_config"`
	Sensors           map[string]rawSensor     `json:"sensors"`
	Collections       map[string]rawCollection `json:"collections"`
}

type rawCalibrationConfig struct {
	CalibrationPattern rawPattern `json:"calibration_pattern"`
}

type rawPattern struct {
	PatternType string `json:"pattern_type"`
	Dimension   struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"dimension"`
	Size float64 `json:"size"`
}

type rawSensor struct {
	Modality   string         `json:"modality"`
	CameraInfo *rawCameraInfo `json:"camera_info"`
}

type rawCameraInfo struct {
	Header struct {
		FrameID string `json:"frame_id"`
	} `json:"header"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	DistortionModel string    `json:"distortion_model"`
	K               []float64 `json:"K"`
	D               []float64 `json:"D"`
}

type rawCollection struct {
	// Labels are decoded per sensor once the cameras are known; other modalities use other layouts.
	Labels     map[string]interface{}  `json:"labels"`
	Transforms map[string]rawTransform `json:"transforms"`
}

type rawLabel struct {
	Detected bool        `json:"detected"`
	Idxs     []rawCorner `json:"idxs"`
}

type rawCorner struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type rawTransform struct {
	Parent string    `json:"parent"`
	Child  string    `json:"child"`
	Trans  []float64 `json:"trans"`
	Quat   []float64 `json:"quat"`
}
