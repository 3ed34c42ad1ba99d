// Command digitnet trains, applies and inspects MNIST-style CNN classifiers.
//
// Usage:
//
//	digitnet train   -data train.csv -out model.json [-epochs N] [-batch N] [-val-split F] [-seed N] [-scale] [-plot history.png]
//	digitnet predict -model model.json -data test.csv [-labels] [-scale]
//	digitnet inspect -model model.json
//
// The image geometry comes from MNIST_FEATURE_LENGTH and
// MNIST_NUMBER_OF_CLASSES; DIGITNET_LOG_LEVEL sets the log level.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/digitnet/config"
	"github.com/YuminosukeSato/digitnet/pkg/log"
)

const usage = `usage: digitnet <command> [flags]

commands:
  train     fit a classifier on a labelled CSV file and save it
  predict   print one predicted label per row of a CSV file
  inspect   print the hyperparameters and layers of a saved model
`

type command func(cfg config.Config, args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"train":   runTrain,
	"predict": runPredict,
	"inspect": runInspect,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "digitnet: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "digitnet: %v\n", err)
		return 1
	}
	if err := log.SetupLogger(cfg.LogLevel, stderr); err != nil {
		fmt.Fprintf(stderr, "digitnet: %v\n", err)
		return 1
	}

	if err := cmd(cfg, args[1:], stdout, stderr); err != nil {
		log.GetLogger().Error("Command failed", err, log.OperationKey, args[0])
		fmt.Fprintf(stderr, "digitnet %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
