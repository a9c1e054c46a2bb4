// Package evaluation measures how well an extrinsic calibration between two cameras explains the
// pattern corners each of them detected.
package evaluation

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

// DefaultReferenceFrame is the frame pose errors are expressed in when none is configured.
const DefaultReferenceFrame = "base_link"

// Config selects the sensors and collections to evaluate.
type Config struct {
	SourceSensor   string   `json:"source_sensor"`
	TargetSensor   string   `json:"target_sensor"`
	ReferenceFrame string   `json:"reference_frame,omitempty"`
	Collections    []string `json:"collections,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var err error
	if cfg.SourceSensor == "" {
		err = multierr.Append(err, errors.New(`"source_sensor" is required`))
	}
	if cfg.TargetSensor == "" {
		err = multierr.Append(err, errors.New(`"target_sensor" is required`))
	}
	if cfg.SourceSensor != "" && cfg.SourceSensor == cfg.TargetSensor {
		err = multierr.Append(err, errors.Errorf("source and target sensor must differ, both are %q", cfg.SourceSensor))
	}
	if dups := lo.FindDuplicates(cfg.Collections); len(dups) > 0 {
		err = multierr.Append(err, errors.Errorf("collections listed more than once: %v", dups))
	}
	return err
}

// Reference returns the configured reference frame or DefaultReferenceFrame.
func (cfg *Config) Reference() string {
	if cfg.ReferenceFrame == "" {
		return DefaultReferenceFrame
	}
	return cfg.ReferenceFrame
}

// Selects reports whether a collection id is part of the evaluation. An empty list selects everything.
func (cfg *Config) Selects(id string) bool {
	return len(cfg.Collections) == 0 || lo.Contains(cfg.Collections, id)
}
