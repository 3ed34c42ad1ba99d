package cnn

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/core/model"
	"github.com/YuminosukeSato/digitnet/nn"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// Document is the persisted form of an MNISTClassifier. The hyperparameter
// keys sit at the top level next to the graph config, the weights and the
// training history.
type Document struct {
	Params

	TrainingHistory *nn.History     `json:"training_history"`
	ModelConfig     *nn.ModelConfig `json:"model_config"`
	ModelWeights    []*nn.Tensor    `json:"model_weights"`
}

// ToDocument captures the hyperparameters, graph config, weights and
// history. The document shares no memory with the classifier.
func (c *MNISTClassifier) ToDocument() (*Document, error) {
	if err := c.state.RequireBuilt(modelName, "ToDocument"); err != nil {
		return nil, err
	}
	cfg := c.model.Config()
	return &Document{
		Params:          c.params.Clone(),
		TrainingHistory: c.history.Clone(),
		ModelConfig:     &cfg,
		ModelWeights:    c.model.Weights(),
	}, nil
}

// FromDocument creates a classifier from doc. Hyperparameters missing from
// doc keep their defaults. The graph is rebuilt from the document's config
// and loaded with its weights.
func FromDocument(cfg config.Config, doc *Document, opts ...Option) (*MNISTClassifier, error) {
	c := NewMNISTClassifier(cfg, opts...)
	if err := c.restore(doc); err != nil {
		return nil, err
	}
	return c, nil
}

// restore replaces c's hyperparameters, graph and history with doc's.
// c is unchanged on error.
func (c *MNISTClassifier) restore(doc *Document) error {
	if doc == nil {
		return errors.NewDocumentIncompatibleError("document", "is nil", nil)
	}
	if doc.ModelConfig == nil {
		return errors.NewDocumentIncompatibleError("model_config", "is missing", nil)
	}
	if doc.ModelWeights == nil {
		return errors.NewDocumentIncompatibleError("model_weights", "is missing", nil)
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	candidate := &MNISTClassifier{cfg: c.cfg, params: doc.Params.Clone()}
	if err := sameGraph(candidate.GraphConfig(), *doc.ModelConfig); err != nil {
		return err
	}

	m, err := nn.Build(*doc.ModelConfig, nn.WithSeed(doc.RandomState), nn.WithLogger(c.logger))
	if err != nil {
		return errors.NewDocumentIncompatibleError("model_config", "cannot be built", err)
	}
	if err := m.SetWeights(doc.ModelWeights); err != nil {
		return errors.NewDocumentIncompatibleError("model_weights", "do not fit the graph", err)
	}
	if err := m.Compile(doc.Optimizer, doc.Loss, doc.Metrics); err != nil {
		return errors.NewDocumentIncompatibleError("optimizer", "cannot compile the graph", err)
	}

	c.params = candidate.params
	c.model = m
	c.history = doc.TrainingHistory.Clone()
	c.state.Reset()
	c.state.SetFitted()

	c.logger.Debug("Model restored",
		log.OperationKey, log.OperationDeserialize,
		log.LayersKey, len(doc.ModelConfig.Layers),
	)
	return nil
}

// sameGraph reports a DocumentIncompatibleError when got differs from the
// config the hyperparameters and process configuration describe.
func sameGraph(want, got nn.ModelConfig) error {
	if len(want.Layers) != len(got.Layers) {
		return errors.NewDocumentIncompatibleError("model_config",
			"layer count does not match the hyperparameters", nil)
	}
	for i := range want.Layers {
		w, err := json.Marshal(want.Layers[i])
		if err != nil {
			return errors.Wrap(err, "encoding layer config")
		}
		g, err := json.Marshal(got.Layers[i])
		if err != nil {
			return errors.Wrap(err, "encoding layer config")
		}
		if !bytes.Equal(w, g) {
			return errors.NewDocumentIncompatibleError("model_config",
				"layer "+got.Layers[i].Name+" does not match the hyperparameters or the process configuration", nil)
		}
	}
	return nil
}

// MarshalDocument encodes the classifier's document as JSON.
func (c *MNISTClassifier) MarshalDocument() ([]byte, error) {
	doc, err := c.ToDocument()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := model.EncodeJSON(doc, &buf); err != nil {
		return nil, errors.NewDocumentIncompatibleError("document", "cannot be encoded", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes a JSON document. Unknown keys are rejected and
// missing hyperparameters take their defaults.
func UnmarshalDocument(data []byte) (*Document, error) {
	doc := &Document{Params: DefaultParams()}
	if err := model.DecodeJSONStrictBytes(data, doc); err != nil {
		return nil, errors.NewDocumentIncompatibleError("document", "cannot be decoded", err)
	}
	return doc, nil
}

// AsMap returns the document as plain nested maps, slices, strings and
// float64 numbers.
func (d *Document) AsMap() (map[string]interface{}, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.NewDocumentIncompatibleError("document", "cannot be encoded", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decoding document map")
	}
	return out, nil
}

// DocumentFromMap is the inverse of AsMap, with the same key checks as
// UnmarshalDocument.
func DocumentFromMap(m map[string]interface{}) (*Document, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, errors.NewDocumentIncompatibleError("document", "is not a plain mapping", err)
	}
	return UnmarshalDocument(data)
}

// Save writes the classifier's document to path as JSON.
func (c *MNISTClassifier) Save(path string) error {
	doc, err := c.ToDocument()
	if err != nil {
		return err
	}
	if err := model.SaveJSON(doc, path); err != nil {
		return err
	}
	c.logger.Info("Model saved", log.OperationKey, log.OperationSerialize, "path", path)
	return nil
}

// Load replaces the classifier's state with the document stored at path.
// The process configuration and logger are kept.
func (c *MNISTClassifier) Load(path string) error {
	doc := &Document{Params: DefaultParams()}
	if err := model.LoadJSON(doc, path); err != nil {
		return errors.NewDocumentIncompatibleError("document", "cannot be loaded from "+path, err)
	}
	return c.restore(doc)
}

// Load reads a classifier saved with Save.
func Load(cfg config.Config, path string, opts ...Option) (*MNISTClassifier, error) {
	c := NewMNISTClassifier(cfg, opts...)
	if err := c.Load(path); err != nil {
		return nil, err
	}
	return c, nil
}

// WriteTo writes the JSON document to w.
func (c *MNISTClassifier) WriteTo(w io.Writer) (int64, error) {
	data, err := c.MarshalDocument()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), errors.Wrap(err, "writing document")
}

// ReadFrom replaces the classifier's state with the JSON document read
// from r.
func (c *MNISTClassifier) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), errors.Wrap(err, "reading document")
	}
	doc, err := UnmarshalDocument(data)
	if err != nil {
		return int64(len(data)), err
	}
	return int64(len(data)), c.restore(doc)
}
