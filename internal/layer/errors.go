package layer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoForward is returned by Backward before any Forward.
	ErrNoForward = errors.New("layer: backward called before forward")

	// ErrNoParams is returned when a weighted layer is used before InitParams.
	ErrNoParams = errors.New("layer: parameters not initialized")
)

// ConfigError rejects a layer configuration, such as a stride that does not
// divide the input extent.
type ConfigError struct {
	Layer  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("layer %s: invalid configuration: %s", e.Layer, e.Reason)
}

// windowSize returns the number of windows of size k with stride s along an
// extent of n, (n - max(k, s))/s + 1, or an error when they do not tile it.
func windowSize(name, axis string, n, k, s int) (int, error) {
	if k <= 0 || s <= 0 {
		return 0, &ConfigError{Layer: name, Reason: fmt.Sprintf("%s window %d and stride %d must be positive", axis, k, s)}
	}
	span := max(k, s)
	if n < span {
		return 0, &ConfigError{Layer: name, Reason: fmt.Sprintf("%s extent %d smaller than window %d (stride %d)", axis, n, k, s)}
	}
	if (n-span)%s != 0 {
		return 0, &ConfigError{Layer: name, Reason: fmt.Sprintf("%s stride %d does not divide extent %d for window %d", axis, s, n, k)}
	}
	return (n-span)/s + 1, nil
}
