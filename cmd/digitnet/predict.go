package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/cnn"
	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/datasets"
	"github.com/YuminosukeSato/digitnet/metrics"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func runPredict(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		modelPath = fs.String("model", "model.json", "model document written by train")
		data      = fs.String("data", "", "CSV file to classify (required)")
		labelled  = fs.Bool("labels", false, "rows start with a label; report accuracy and the confusion matrix on stderr")
		scale     = fs.Bool("scale", false, "divide pixel intensities by 255")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *data == "" {
		return errors.NewValidationError("data", "is required", *data)
	}

	clf, err := cnn.Load(cfg, *modelPath)
	if err != nil {
		return err
	}
	ds, err := datasets.LoadCSV(*data, datasets.CSVOptions{
		FeatureLength: cfg.FeatureLength,
		Unlabeled:     !*labelled,
	})
	if err != nil {
		return err
	}
	X, err := scaleFeatures(ds.X, *scale)
	if err != nil {
		return err
	}

	labels, err := clf.Predict(X)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(stdout)
	for _, l := range labels {
		fmt.Fprintln(w, l)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "writing predictions")
	}

	if *labelled {
		return writeReport(stderr, ds.Y, labels, cfg.NumberOfClasses)
	}
	return nil
}

// writeReport prints the accuracy and the confusion matrix of predicted
// against true labels. Rows of the matrix are true labels.
func writeReport(w io.Writer, yTrue *mat.VecDense, labels []string, classes int) error {
	yPred := mat.NewVecDense(len(labels), nil)
	for i, l := range labels {
		k, err := strconv.Atoi(l)
		if err != nil {
			return errors.NewValueError("predict", fmt.Sprintf("predicted label %q is not an integer", l))
		}
		yPred.SetVec(i, float64(k))
	}

	acc, err := metrics.Accuracy(yTrue, yPred)
	if err != nil {
		return err
	}
	cm, err := metrics.ConfusionMatrix(yTrue, yPred, classes)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "accuracy: %.4f\n", acc)
	fmt.Fprintln(w, "confusion matrix (rows: true, columns: predicted):")
	row := make([]float64, classes)
	for i := 0; i < classes; i++ {
		mat.Row(row, i, cm)
		fields := make([]string, classes)
		for j, v := range row {
			fields[j] = strconv.Itoa(int(v))
		}
		fmt.Fprintf(w, "  %d: %s\n", i, strings.Join(fields, " "))
	}
	return nil
}
