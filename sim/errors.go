package sim

import "fmt"

// ConfigurationError reports a parameter that cannot be simulated.
// It is returned before any simulated time advances.
type ConfigurationError struct {
	Field  string  // yaml name of the offending parameter
	Value  float64 // value as supplied
	Reason string  // e.g. "must be positive"
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s, got %v", e.Field, e.Reason, e.Value)
}

// InvalidDurationError is returned when a negative (or NaN) delay is scheduled.
// Validated parameters never produce one; seeing it means an invariant broke.
type InvalidDurationError struct {
	Duration float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid duration: cannot schedule %v time units ahead", e.Duration)
}
