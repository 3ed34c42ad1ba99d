package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/datasets"
)

func writeDataset(t *testing.T, dir string, n int, seed int64) string {
	t.Helper()
	ds, err := datasets.SyntheticDigits(4, 2, n, seed)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, datasets.WriteCSV(&buf, ds))
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func setEnv(t *testing.T) {
	t.Setenv(config.EnvFeatureLength, "16")
	t.Setenv(config.EnvNumberOfClasses, "2")
	t.Setenv(config.EnvLogLevel, "error")
}

func TestTrainPredictInspect(t *testing.T) {
	setEnv(t)
	dir := t.TempDir()
	data := writeDataset(t, dir, 20, 1)
	modelPath := filepath.Join(dir, "model.json")
	plotPath := filepath.Join(dir, "history.png")

	var stdout, stderr bytes.Buffer
	code := run([]string{"train",
		"-data", data, "-out", modelPath,
		"-epochs", "3", "-batch", "4", "-val-split", "0.2",
		"-seed", "1", "-scale", "-plot", plotPath,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "val_accuracy:")
	assert.FileExists(t, modelPath)
	assert.FileExists(t, plotPath)

	stdout.Reset()
	stderr.Reset()
	code = run([]string{"predict", "-model", modelPath, "-data", data, "-labels", "-scale"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	assert.Len(t, lines, 20)
	for _, l := range lines {
		assert.Contains(t, []string{"0", "1"}, l)
	}
	assert.Contains(t, stderr.String(), "accuracy: ")
	assert.Contains(t, stderr.String(), "confusion matrix")

	stdout.Reset()
	stderr.Reset()
	code = run([]string{"inspect", "-model", modelPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "conv_layer_one_filters")
	assert.Contains(t, out, "output_layer")
	assert.Contains(t, out, "Training history (3 epochs)")
}

func TestWriteReport(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{0, 0, 1, 1})

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, yTrue, []string{"0", "1", "1", "1"}, 2))
	assert.Equal(t, "accuracy: 0.7500\n"+
		"confusion matrix (rows: true, columns: predicted):\n"+
		"  0: 1 1\n"+
		"  1: 0 2\n", buf.String())

	assert.Error(t, writeReport(&buf, yTrue, []string{"0", "1", "x", "1"}, 2))
	assert.Error(t, writeReport(&buf, yTrue, []string{"0", "1", "2", "1"}, 2), "label outside the class range")
}

func TestRunErrors(t *testing.T) {
	setEnv(t)
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: digitnet")

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"serve"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "serve"`)

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"train"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "data")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing.json")
	assert.Equal(t, 1, run([]string{"inspect", "-model", missing}, &stdout, &stderr))
}

func TestRunRequiresConfiguration(t *testing.T) {
	t.Setenv(config.EnvFeatureLength, "")
	os.Unsetenv(config.EnvFeatureLength)
	t.Setenv(config.EnvNumberOfClasses, "2")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"inspect"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), config.EnvFeatureLength)
}
