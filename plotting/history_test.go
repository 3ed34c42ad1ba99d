package plotting

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/digitnet/nn"
)

func sampleHistory() *nn.History {
	return &nn.History{
		Epoch: []int{0, 1, 2},
		History: map[string][]float64{
			"loss":         {1.2, 0.8, 0.5},
			"val_loss":     {1.3, 0.9, 0.7},
			"accuracy":     {0.4, 0.6, 0.8},
			"val_accuracy": {0.3, 0.5, 0.7},
		},
	}
}

func TestHistory(t *testing.T) {
	p, err := History(sampleHistory(), "run", "loss", "val_loss")
	require.NoError(t, err)
	assert.Equal(t, "run", p.Title.Text)
	assert.Equal(t, "epoch", p.X.Label.Text)
	assert.InDelta(t, 1.0, p.X.Min, 1e-12)
	assert.InDelta(t, 3.0, p.X.Max, 1e-12)

	_, err = History(sampleHistory(), "run", "missing")
	assert.Error(t, err)
	_, err = History(nil, "run")
	assert.Error(t, err)
	_, err = History(nn.NewHistory(), "run")
	assert.Error(t, err)
}

func TestLossAndAccuracy(t *testing.T) {
	loss, acc, err := LossAndAccuracy(sampleHistory())
	require.NoError(t, err)
	require.NotNil(t, loss)
	require.NotNil(t, acc)
	assert.Equal(t, 1.0, acc.Y.Max)

	h := sampleHistory()
	delete(h.History, "accuracy")
	delete(h.History, "val_accuracy")
	_, acc, err = LossAndAccuracy(h)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestSaveAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.png")
	require.NoError(t, Save(sampleHistory(), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleHistory(), "svg"))
	assert.Contains(t, buf.String(), "<svg")
}
