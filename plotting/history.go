// Package plotting renders training histories with gonum/plot.
package plotting

import (
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/digitnet/nn"
	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Default image size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// History builds a line chart with one series per key, plotted against the
// one-based epoch number. With no keys every recorded key is drawn.
func History(h *nn.History, title string, keys ...string) (*plot.Plot, error) {
	if h == nil || h.Len() == 0 {
		return nil, errors.NewValueError("plotting.History", "history is empty")
	}
	if len(keys) == 0 {
		keys = h.Keys()
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Legend.Top = true

	var series []interface{}
	for _, key := range keys {
		values, ok := h.History[key]
		if !ok {
			return nil, errors.NewValueError("plotting.History", "history has no key "+key)
		}
		xys := make(plotter.XYs, len(values))
		for i, v := range values {
			xys[i].X = float64(h.Epoch[i] + 1)
			xys[i].Y = v
		}
		series = append(series, key, xys)
	}
	if err := plotutil.AddLinePoints(p, series...); err != nil {
		return nil, errors.Wrap(err, "adding history lines")
	}
	return p, nil
}

// LossAndAccuracy splits a history into a loss chart and an accuracy chart.
// The accuracy chart is nil when no accuracy key was recorded.
func LossAndAccuracy(h *nn.History) (loss, accuracy *plot.Plot, err error) {
	var lossKeys, accKeys []string
	if h != nil {
		for _, k := range h.Keys() {
			switch {
			case strings.HasSuffix(k, "loss"):
				lossKeys = append(lossKeys, k)
			case strings.HasSuffix(k, "accuracy"):
				accKeys = append(accKeys, k)
			}
		}
	}
	if loss, err = History(h, "Loss", lossKeys...); err != nil {
		return nil, nil, err
	}
	if len(accKeys) > 0 {
		if accuracy, err = History(h, "Accuracy", accKeys...); err != nil {
			return nil, nil, err
		}
		accuracy.Y.Min, accuracy.Y.Max = 0, 1
	}
	return loss, accuracy, nil
}

// Save writes the chart of h to path. The format follows the extension
// (.png, .svg, .pdf, ...).
func Save(h *nn.History, path string, keys ...string) error {
	p, err := History(h, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), keys...)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Save(Width, Height, path), "saving plot")
}

// Write renders the chart of h to w in format ("png", "svg", ...).
func Write(w io.Writer, h *nn.History, format string, keys ...string) error {
	p, err := History(h, "Training history", keys...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return errors.Wrap(err, "rendering plot")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "writing plot")
}
