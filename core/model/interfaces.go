// Package model provides the capability interfaces shared by estimators.
package model

import (
	"io"

	"gonum.org/v1/gonum/mat"
)

// LabelPredictor is the interface for classifiers that return class labels.
type LabelPredictor interface {
	// Predict returns one label per row of X, in input order.
	Predict(X mat.Matrix) ([]string, error)
}

// ProbaPredictor is the interface for models that expose class scores.
type ProbaPredictor interface {
	// PredictProba returns one row of class scores per row of X.
	PredictProba(X mat.Matrix) (*mat.Dense, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy on the given data and labels.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	LabelPredictor
	ProbaPredictor
	Scorer

	// IsFitted reports whether the model holds a trained or restored graph.
	IsFitted() bool
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}

// StreamPersistable is Persistable over arbitrary streams.
type StreamPersistable interface {
	WriteTo(w io.Writer) (int64, error)
	ReadFrom(r io.Reader) (int64, error)
}
