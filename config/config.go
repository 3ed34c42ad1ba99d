// Package config holds the process-wide dataset shape shared by every
// classifier instance.
//
// The values are read once from the environment at start-up and then passed
// explicitly to constructors:
//
//	cfg := config.MustLoad()
//	clf := cnn.NewMNISTClassifier(cfg)
package config

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// Environment variable names.
const (
	EnvFeatureLength   = "MNIST_FEATURE_LENGTH"
	EnvNumberOfClasses = "MNIST_NUMBER_OF_CLASSES"
	EnvLogLevel        = "DIGITNET_LOG_LEVEL"
)

// Config is the immutable dataset shape. The zero value is invalid.
type Config struct {
	// FeatureLength is the number of pixels per sample. It must be a
	// perfect square since samples are reshaped to square images.
	FeatureLength int
	// NumberOfClasses is the width of the one-hot label space.
	NumberOfClasses int
	// LogLevel is the optional log level name, "info" when unset.
	LogLevel string
}

// New returns a validated Config.
func New(featureLength, numberOfClasses int) (Config, error) {
	cfg := Config{FeatureLength: featureLength, NumberOfClasses: numberOfClasses, LogLevel: "info"}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// MustLoad is Load that panics on error. Use it from main where missing
// configuration is fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom reads the configuration through lookup, which has the signature
// of os.LookupEnv.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	featureLength, err := requiredInt(lookup, EnvFeatureLength)
	if err != nil {
		return Config{}, err
	}
	classes, err := requiredInt(lookup, EnvNumberOfClasses)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{FeatureLength: featureLength, NumberOfClasses: classes, LogLevel: "info"}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func requiredInt(lookup func(string) (string, bool), key string) (int, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, errors.NewConfigurationMissingError(key, "environment variable is not set")
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewConfigurationMissingError(key, "not an integer: "+raw)
	}
	return v, nil
}

// Validate checks that both sizes are positive and that FeatureLength is a
// perfect square.
func (c Config) Validate() error {
	if c.FeatureLength <= 0 {
		return errors.NewValidationError("feature_length", "must be positive", c.FeatureLength)
	}
	if c.NumberOfClasses <= 0 {
		return errors.NewValidationError("number_of_classes", "must be positive", c.NumberOfClasses)
	}
	if side := isqrt(c.FeatureLength); side*side != c.FeatureLength {
		return errors.NewValidationError("feature_length", "must be a perfect square", c.FeatureLength)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// ImageSide returns the side of the square image a sample is reshaped to.
func (c Config) ImageSide() int {
	return isqrt(c.FeatureLength)
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	s := int(math.Sqrt(float64(n)))
	for s*s > n {
		s--
	}
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}
