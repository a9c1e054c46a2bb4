// Package main is the calibeval command: it evaluates a camera to camera extrinsic calibration
// against the pattern detections of a dataset.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/calibeval/dataset"
	"go.viam.com/calibeval/evaluation"
	"go.viam.com/calibeval/logging"
	"go.viam.com/calibeval/visualize"
)

const (
	flagDataset        = "dataset"
	flagSource         = "source"
	flagTarget         = "target"
	flagReferenceFrame = "reference-frame"
	flagCollections    = "collections"
	flagPlotDir        = "plot-dir"
	flagDebug          = "debug"
)

func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "calibeval",
		Usage:           "evaluate a camera to camera extrinsic calibration",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagDataset,
				Aliases:  []string{"d"},
				Required: true,
				Usage:    "load the calibrated dataset from `FILE`",
			},
			&cli.StringFlag{
				Name:     flagSource,
				Aliases:  []string{"ss"},
				Required: true,
				Usage:    "camera whose detections are transferred",
			},
			&cli.StringFlag{
				Name:     flagTarget,
				Aliases:  []string{"ts"},
				Required: true,
				Usage:    "camera the detections are transferred into",
			},
			&cli.StringFlag{
				Name:  flagReferenceFrame,
				Value: evaluation.DefaultReferenceFrame,
				Usage: "frame the pattern poses are compared in",
			},
			&cli.StringSliceFlag{
				Name:  flagCollections,
				Usage: "only evaluate these collection ids",
			},
			&cli.StringFlag{
				Name:  flagPlotDir,
				Usage: "write per-collection plots to `DIR`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Action: evaluateAction,
	}
}

func evaluateAction(c *cli.Context) error {
	logger := logging.NewLogger("calibeval")
	if c.Bool(flagDebug) {
		logger = logging.NewDebugLogger("calibeval")
	}
	cfg := evaluation.Config{
		SourceSensor:   c.String(flagSource),
		TargetSensor:   c.String(flagTarget),
		ReferenceFrame: c.String(flagReferenceFrame),
		Collections:    c.StringSlice(flagCollections),
	}
	report, err := run(c, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, report.String())
	return nil
}

func run(c *cli.Context, cfg evaluation.Config, logger logging.Logger) (*evaluation.Report, error) {
	ds, err := dataset.Load(c.String(flagDataset))
	if err != nil {
		return nil, err
	}
	logger.Infow("loaded dataset", "sensors", ds.SensorNames(), "collections", len(ds.Collections), "pattern", ds.Pattern.String())

	inputs, dropped, err := ds.Inputs(cfg)
	if err != nil {
		return nil, err
	}
	var skipped []string
	for id, reason := range dropped {
		if errors.Is(reason, dataset.ErrNotDetected) {
			logger.Debugw("collection not labeled by both sensors", "collection", id, "reason", reason)
			continue
		}
		logger.Warnw("skipping collection", "collection", id, "error", reason)
		skipped = append(skipped, id)
	}
	if len(inputs) == 0 {
		return nil, errors.Errorf("no collection has detections from both %q and %q", cfg.SourceSensor, cfg.TargetSensor)
	}

	source, err := ds.Sensor(cfg.SourceSensor)
	if err != nil {
		return nil, err
	}
	target, err := ds.Sensor(cfg.TargetSensor)
	if err != nil {
		return nil, err
	}
	evaluator, err := evaluation.NewEvaluator(ds.Pattern, source.Model, target.Model, logger.Sublogger("evaluation"))
	if err != nil {
		return nil, err
	}
	report, err := evaluator.Evaluate(c.Context, inputs)
	if err != nil {
		return nil, err
	}
	report.Skipped = append(report.Skipped, skipped...)
	evaluation.SortCollectionIDs(report.Skipped)
	if len(report.Results) == 0 {
		return nil, errors.New("every collection failed to evaluate")
	}

	if dir := c.String(flagPlotDir); dir != "" {
		for _, res := range report.Results {
			path := filepath.Join(dir, fmt.Sprintf("collection_%s.png", res.ID))
			if err := visualize.PlotCollection(res, path); err != nil {
				return nil, err
			}
		}
		if err := visualize.PlotErrors(report, filepath.Join(dir, "rms_errors.png")); err != nil {
			return nil, err
		}
		logger.Infow("wrote plots", "dir", dir)
	}
	return report, nil
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
