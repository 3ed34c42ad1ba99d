package main

import (
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/YuminosukeSato/digitnet/cnn"
	"github.com/YuminosukeSato/digitnet/config"
)

func runInspect(cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "model.json", "model document written by train")
	if err := fs.Parse(args); err != nil {
		return err
	}

	clf, err := cnn.Load(cfg, *modelPath)
	if err != nil {
		return err
	}

	params := clf.GetParams()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(stdout, "Hyperparameters:")
	for _, k := range keys {
		fmt.Fprintf(stdout, "  %-32s %v\n", k, params[k])
	}

	summary, err := clf.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n%s\n", summary)

	if h := clf.History(); h != nil {
		fmt.Fprintf(stdout, "\nTraining history (%d epochs):\n", h.Len())
		for _, k := range h.Keys() {
			v, _ := h.Last(k)
			fmt.Fprintf(stdout, "  %-14s %.4f\n", k, v)
		}
	}
	return nil
}
