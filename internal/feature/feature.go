// Package feature implements the premium feature registry and the gate
// application code calls to invoke premium behavior. A feature executes only
// when its environment switch, its license, and the calling tenant's
// entitlement all agree; any failure reads as "feature unavailable" and never
// as a hard error.
package feature

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnknownOperation is returned by implementations for an unrecognized
// operation name.
var ErrUnknownOperation = errors.New("unknown operation")

// Args carries named arguments to a feature operation.
type Args map[string]any

// String returns the named argument as a string, or "" if absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Implementation is the call surface every premium module exposes. Operations
// are dispatched by name so callers stay decoupled from concrete types.
type Implementation interface {
	FeatureID() string
	Invoke(ctx context.Context, op string, args Args) (any, error)
}

// Factory binds a feature's implementation. It runs at most once per
// successful resolution; a returned error is not cached, so a later attempt
// may succeed.
type Factory func() (Implementation, error)

// LicenseSource supplies the raw license descriptor bytes for a feature.
type LicenseSource func() ([]byte, error)

// FileLicense reads the descriptor from a license file on each load.
func FileLicense(path string) LicenseSource {
	return func() ([]byte, error) {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from static registration
		if err != nil {
			return nil, fmt.Errorf("read license %s: %w", path, err)
		}
		return data, nil
	}
}

// StaticLicense serves fixed descriptor bytes (embedded licenses, tests).
func StaticLicense(data []byte) LicenseSource {
	return func() ([]byte, error) { return data, nil }
}

// Descriptor is the registered metadata for one premium feature.
type Descriptor struct {
	ID          string
	Name        string
	Description string

	// EnabledEnvVar is the process configuration switch read on every
	// IsEnabled call. Defaults to PREMIUM_<ID>_ENABLED.
	EnabledEnvVar string

	// Dependencies are feature IDs whose enablement switches must also be on.
	// Only direct dependencies are checked, not the transitive closure.
	Dependencies []string

	// License is optional; a nil source means no license is required.
	License LicenseSource

	// New binds the implementation. Called lazily and memoized on success.
	New Factory
}

func (d *Descriptor) validate() error {
	if d.ID == "" {
		return errors.New("feature id is required")
	}
	if d.New == nil {
		return fmt.Errorf("feature %s: factory is required", d.ID)
	}
	return nil
}

// defaultEnvVar derives the conventional enablement switch name.
func defaultEnvVar(featureID string) string {
	return "PREMIUM_" + strings.ToUpper(featureID) + "_ENABLED"
}
