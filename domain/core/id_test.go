package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestRunIDString(t *testing.T) {
	id := RunID("run-123")
	if id.String() != "run-123" {
		t.Errorf("Expected String() to return 'run-123', got '%s'", id.String())
	}
	if NewRunID() == "" {
		t.Error("Expected non-empty run ID")
	}
}

func TestErrorClassification(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		isConfig bool
	}{
		{"unknown feature", NewUnknownFeatureError("spikes"), true},
		{"unknown parameter", NewUnknownParameterError("kappa"), true},
		{"unknown method", ErrUnknownMethod, true},
		{"unknown sensitivity", ErrUnknownSensitivity, true},
		{"ragged", NewRaggedValuesError("model", 3, 2), false},
		{"not implemented", ErrNotImplemented, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfigurationError(tc.err); got != tc.isConfig {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", tc.err, got, tc.isConfig)
			}
		})
	}

	if !IsNotImplemented(ErrNotImplemented) {
		t.Error("Expected ErrNotImplemented to be classified as not implemented")
	}
}
