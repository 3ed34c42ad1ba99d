package nn

import (
	"math"
	"strings"
	"time"

	"github.com/YuminosukeSato/digitnet/pkg/log"
)

// CallbackEnv is passed to every callback after each epoch.
type CallbackEnv struct {
	Model      *Model
	Epoch      int // zero-based
	Epochs     int
	Logs       map[string]float64
	TrainBegin time.Time
	EpochBegin time.Time
	EpochEnd   time.Time

	// StopTraining ends Fit after the current epoch when set.
	StopTraining bool
}

// Callback runs after each epoch. A returned error aborts Fit.
type Callback func(env *CallbackEnv) error

// EarlyStopping stops training once monitor has not improved by more than
// minDelta for patience consecutive epochs. Keys containing "loss" or
// equal to "mse"/"val_mse" are minimised, everything else is maximised.
// An absent key is ignored.
func EarlyStopping(monitor string, patience int, minDelta float64) Callback {
	minimize := strings.Contains(monitor, "loss") || strings.HasSuffix(monitor, "mse")
	best := math.Inf(1)
	if !minimize {
		best = math.Inf(-1)
	}
	wait := 0

	return func(env *CallbackEnv) error {
		value, ok := env.Logs[monitor]
		if !ok {
			return nil
		}
		improved := value < best-minDelta
		if !minimize {
			improved = value > best+minDelta
		}
		if improved {
			best = value
			wait = 0
			return nil
		}
		wait++
		if wait >= patience {
			env.StopTraining = true
		}
		return nil
	}
}

// RecordHistory appends every epoch's logs to *history.
func RecordHistory(history *map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		if *history == nil {
			*history = make(map[string][]float64)
		}
		for k, v := range env.Logs {
			(*history)[k] = append((*history)[k], v)
		}
		return nil
	}
}

// TimeLimit stops training once maxDuration has elapsed since Fit began.
func TimeLimit(maxDuration time.Duration) Callback {
	return func(env *CallbackEnv) error {
		if env.EpochEnd.Sub(env.TrainBegin) > maxDuration {
			env.StopTraining = true
		}
		return nil
	}
}

// LogEpoch writes one info record per epoch.
func LogEpoch(logger log.Logger) Callback {
	return func(env *CallbackEnv) error {
		fields := []any{
			log.EpochKey, env.Epoch + 1,
			log.EpochsKey, env.Epochs,
			log.DurationMsKey, env.EpochEnd.Sub(env.EpochBegin).Milliseconds(),
		}
		if v, ok := env.Logs["loss"]; ok {
			fields = append(fields, log.LossKey, v)
		}
		if v, ok := env.Logs["accuracy"]; ok {
			fields = append(fields, log.AccuracyKey, v)
		}
		if v, ok := env.Logs["val_loss"]; ok {
			fields = append(fields, log.ValLossKey, v)
		}
		if v, ok := env.Logs["val_accuracy"]; ok {
			fields = append(fields, log.ValAccuracyKey, v)
		}
		logger.Info("Epoch finished", fields...)
		return nil
	}
}
