package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrConfiguration      = errors.New("invalid configuration")
	ErrUnknownFeature     = fmt.Errorf("%w: unknown feature", ErrConfiguration)
	ErrUnknownMethod      = fmt.Errorf("%w: unknown method", ErrConfiguration)
	ErrUnknownSensitivity = fmt.Errorf("%w: unknown sensitivity", ErrConfiguration)
	ErrUnknownParameter   = fmt.Errorf("%w: unknown parameter", ErrConfiguration)

	// Reserved variants that have no implementation
	ErrNotImplemented = errors.New("not implemented")

	// Data errors
	ErrRaggedValues     = errors.New("evaluations have different lengths")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewUnknownFeatureError(feature string) error {
	return fmt.Errorf("%w: %s is not a feature", ErrUnknownFeature, feature)
}

func NewUnknownParameterError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
}

func NewRaggedValuesError(feature string, want, got int) error {
	return fmt.Errorf("%w: feature %s expected %d values, got %d", ErrRaggedValues, feature, want, got)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}
