package main

import (
	"flag"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/cnn"
	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/datasets"
	"github.com/YuminosukeSato/digitnet/nn"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/plotting"
	"github.com/YuminosukeSato/digitnet/preprocessing"
)

func runTrain(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		data     = fs.String("data", "", "labelled training CSV (required)")
		out      = fs.String("out", "model.json", "where to write the model document")
		epochs   = fs.Int("epochs", 1, "passes over the training data")
		batch    = fs.Int("batch", nn.DefaultBatchSize, "samples per gradient update")
		valSplit = fs.Float64("val-split", 0.1, "trailing fraction of rows held out for validation")
		seed     = fs.Int64("seed", -1, "random seed, negative for a fresh one")
		scale    = fs.Bool("scale", false, "divide pixel intensities by 255")
		patience = fs.Int("patience", 0, "stop after this many epochs without val_loss improvement (0 disables)")
		plotPath = fs.String("plot", "", "optional image file for the training history chart")
		verbose  = fs.Bool("v", false, "log every epoch")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" {
		return errors.NewValidationError("data", "is required", *data)
	}

	ds, err := datasets.LoadCSV(*data, datasets.CSVOptions{FeatureLength: cfg.FeatureLength})
	if err != nil {
		return err
	}
	X, err := scaleFeatures(ds.X, *scale)
	if err != nil {
		return err
	}

	opts := []cnn.FitOption{cnn.WithEpochs(*epochs)}
	if *patience > 0 {
		opts = append(opts, cnn.WithCallbacks(nn.EarlyStopping("val_loss", *patience, 0)))
	}
	if *verbose {
		opts = append(opts, cnn.WithVerbose(1))
	}

	clf := cnn.NewMNISTClassifier(cfg, cnn.WithRandomState(*seed))
	valAcc, err := clf.Fit(X, ds.Y, *batch, *valSplit, opts...)
	if err != nil {
		return err
	}
	if err := clf.Save(*out); err != nil {
		return err
	}
	if *plotPath != "" {
		if err := plotting.Save(clf.History(), *plotPath); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "val_accuracy: %.4f\nsaved: %s\n", valAcc, *out)
	return nil
}

func scaleFeatures(X *mat.Dense, scale bool) (*mat.Dense, error) {
	if !scale {
		return X, nil
	}
	return preprocessing.NewPixelScaler().FitTransform(X)
}
