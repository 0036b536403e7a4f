package feature

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf/internal/domain/actor"
	"github.com/openshelf/openshelf/internal/domain/license"
	"github.com/openshelf/openshelf/internal/port/audit"
)

// Registry holds the catalog of premium features and lazily resolves each
// feature's implementation. It answers whether a capability is deployed,
// switched on, and licensed, independent of any tenant.
type Registry struct {
	sink audit.Sink

	mu       sync.RWMutex
	features map[string]*entry
}

// entry synchronizes resolution per feature so unrelated features never
// serialize on each other.
type entry struct {
	desc Descriptor

	mu   sync.Mutex
	lic  *license.License // parsed once per load, nil until needed
	impl Implementation   // memoized on successful resolution only
}

// NewRegistry creates an empty feature registry. A nil sink disables audit
// recording of license failures.
func NewRegistry(sink audit.Sink) *Registry {
	return &Registry{
		sink:     sink,
		features: make(map[string]*entry),
	}
}

// Register adds or overwrites a feature by ID. Neither the license nor the
// implementation is touched here; both resolve lazily on first use.
func (r *Registry) Register(desc Descriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	if desc.EnabledEnvVar == "" {
		desc.EnabledEnvVar = defaultEnvVar(desc.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.features[desc.ID]; ok {
		slog.Warn("feature already registered, overwriting", "feature", desc.ID)
	}
	r.features[desc.ID] = &entry{desc: desc}
	return nil
}

// IDs returns the registered feature IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.features))
	for id := range r.features {
		ids = append(ids, id)
	}
	return ids
}

// IsEnabled reports whether the feature's enablement switch is on. The
// environment is read on every call so runtime toggling is observed.
func (r *Registry) IsEnabled(featureID string) bool {
	e := r.entry(featureID)
	if e == nil {
		return false
	}
	on, err := strconv.ParseBool(os.Getenv(e.desc.EnabledEnvVar))
	return err == nil && on
}

// Implementation resolves the feature's implementation: enablement, license,
// and dependency enablement are checked in order, then the factory runs and
// the handle is memoized. Failed steps yield nil and are never cached, so an
// env flip or license renewal is observed on the next call.
func (r *Registry) Implementation(ctx context.Context, featureID string) Implementation {
	e := r.entry(featureID)
	if e == nil {
		return nil
	}

	if !r.IsEnabled(featureID) {
		slog.Debug("feature disabled", "feature", featureID, "env", e.desc.EnabledEnvVar)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !r.licenseOKLocked(ctx, e) {
		return nil
	}

	// Direct dependencies must be switched on. Transitive dependencies are
	// deliberately not chained.
	for _, dep := range e.desc.Dependencies {
		if !r.IsEnabled(dep) {
			slog.Warn("feature dependency disabled", "feature", featureID, "dependency", dep)
			return nil
		}
	}

	if e.impl != nil {
		return e.impl
	}
	impl, err := e.desc.New()
	if err != nil {
		slog.Warn("feature implementation failed to bind", "feature", featureID, "error", err)
		return nil
	}
	e.impl = impl
	slog.Info("feature implementation bound", "feature", featureID)
	return impl
}

// Invoke resolves the feature and calls the named operation. All failures are
// soft: the caller gets (nil, false) and core flows continue without the
// premium result.
func (r *Registry) Invoke(ctx context.Context, featureID, op string, args Args) (any, bool) {
	impl := r.Implementation(ctx, featureID)
	if impl == nil {
		return nil, false
	}
	if !r.Consume(ctx, featureID) {
		return nil, false
	}
	res, err := impl.Invoke(ctx, op, args)
	if err != nil {
		slog.Warn("feature operation failed", "feature", featureID, "op", op, "error", err)
		return nil, false
	}
	return res, true
}

// Consume claims one licensed call for the feature. Features without a quota
// (or without a license at all) always succeed.
func (r *Registry) Consume(ctx context.Context, featureID string) bool {
	e := r.entry(featureID)
	if e == nil {
		return false
	}
	e.mu.Lock()
	ok := r.licenseOKLocked(ctx, e)
	lic := e.lic
	e.mu.Unlock()
	if !ok {
		return false
	}
	if lic == nil {
		return true
	}
	if !lic.CheckAndConsume(time.Now()) {
		r.recordLicenseFailure(ctx, featureID, "quota_exhausted")
		return false
	}
	return true
}

// Licenses returns a snapshot of every loaded license.
func (r *Registry) Licenses(now time.Time) []license.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var infos []license.Info
	for _, e := range r.features {
		e.mu.Lock()
		if e.lic != nil {
			infos = append(infos, e.lic.Snapshot(now))
		}
		e.mu.Unlock()
	}
	return infos
}

// Status describes one registered feature for the admin listing.
type Status struct {
	ID            string        `json:"feature_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	EnabledEnvVar string        `json:"enabled_env_var"`
	Enabled       bool          `json:"enabled"`
	Dependencies  []string      `json:"dependencies,omitempty"`
	License       *license.Info `json:"license,omitempty"`
}

// List returns the status of every registered feature.
func (r *Registry) List(now time.Time) []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make([]Status, 0, len(r.features))
	for id, e := range r.features {
		st := Status{
			ID:            id,
			Name:          e.desc.Name,
			Description:   e.desc.Description,
			EnabledEnvVar: e.desc.EnabledEnvVar,
			Enabled:       r.IsEnabled(id),
			Dependencies:  e.desc.Dependencies,
		}
		e.mu.Lock()
		if e.lic != nil {
			info := e.lic.Snapshot(now)
			st.License = &info
		}
		e.mu.Unlock()
		statuses = append(statuses, st)
	}
	return statuses
}

// Reset drops every memoized implementation and parsed license so the next
// resolution re-reads license sources. Used after license uploads.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.features {
		e.mu.Lock()
		e.impl = nil
		e.lic = nil
		e.mu.Unlock()
	}
}

func (r *Registry) entry(featureID string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.features[featureID]
}

// licenseOKLocked loads the license on first use and validates it against the
// current wall clock. Caller holds e.mu.
func (r *Registry) licenseOKLocked(ctx context.Context, e *entry) bool {
	if e.desc.License == nil {
		return true
	}
	if e.lic == nil {
		data, err := e.desc.License()
		if err != nil {
			slog.Warn("license load failed", "feature", e.desc.ID, "error", err)
			r.recordLicenseFailure(ctx, e.desc.ID, "load_failed")
			return false
		}
		lic, err := license.Parse(e.desc.ID, data)
		if err != nil {
			slog.Warn("license rejected", "feature", e.desc.ID, "error", err)
			r.recordLicenseFailure(ctx, e.desc.ID, "malformed")
			return false
		}
		e.lic = lic
		slog.Info("license loaded", "feature", e.desc.ID, "type", lic.Type)
	}
	if !e.lic.IsValid(time.Now()) {
		slog.Warn("license invalid", "feature", e.desc.ID)
		r.recordLicenseFailure(ctx, e.desc.ID, "expired_or_exhausted")
		return false
	}
	return true
}

func (r *Registry) recordLicenseFailure(ctx context.Context, featureID, reason string) {
	if r.sink == nil {
		return
	}
	r.sink.Record(ctx, audit.Event{
		ID:      uuid.NewString(),
		Action:  "license.rejected",
		Actor:   actor.Anonymous(),
		Path:    featureID,
		Outcome: "unavailable",
		Reason:  reason,
		At:      time.Now().UTC(),
	})
}
