// Package license implements parsing and validation of premium feature
// license descriptors. A license bounds a feature by a validity window and an
// optional call quota; both are re-checked on every call, never at load time.
package license

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Type classifies a license grant.
type Type string

const (
	TypeTrial     Type = "trial"
	TypePaid      Type = "paid"
	TypeUnlimited Type = "unlimited"
)

var validTypes = map[Type]bool{
	TypeTrial:     true,
	TypePaid:      true,
	TypeUnlimited: true,
}

// License is a time/quota-bounded grant for one feature. The call counter is
// monotonic for the process lifetime.
type License struct {
	FeatureID   string
	Type        Type
	ValidFrom   *time.Time
	ValidUntil  *time.Time // nil means perpetual
	MaxRequests *int64     // nil means unlimited
	Metadata    map[string]string

	used atomic.Int64
}

// descriptor is the wire schema of a license file.
type descriptor struct {
	FeatureID   string            `json:"feature_id"`
	LicenseType Type              `json:"license_type"`
	ValidFrom   *time.Time        `json:"valid_from,omitempty"`
	ValidUntil  *time.Time        `json:"valid_until,omitempty"`
	MaxRequests *int64            `json:"max_requests,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Parse decodes a license descriptor owned by featureID. It rejects
// malformed JSON, a feature_id that does not match the owner, an unknown
// license type, and a negative quota. Expiry is deliberately not checked
// here: a descriptor that parses is loadable even when already expired.
func Parse(featureID string, data []byte) (*License, error) {
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse license: %w", err)
	}
	if d.FeatureID != featureID {
		return nil, fmt.Errorf("license feature_id %q does not match %q", d.FeatureID, featureID)
	}
	if d.LicenseType == "" {
		d.LicenseType = TypeTrial
	}
	if !validTypes[d.LicenseType] {
		return nil, fmt.Errorf("unknown license_type %q", d.LicenseType)
	}
	if d.MaxRequests != nil && *d.MaxRequests < 0 {
		return nil, fmt.Errorf("max_requests must be non-negative, got %d", *d.MaxRequests)
	}

	return &License{
		FeatureID:   d.FeatureID,
		Type:        d.LicenseType,
		ValidFrom:   d.ValidFrom,
		ValidUntil:  d.ValidUntil,
		MaxRequests: d.MaxRequests,
		Metadata:    d.Metadata,
	}, nil
}

// IsValid reports whether the license permits a call at the given instant.
// Timestamps are compared in UTC; an absent bound imposes no constraint.
func (l *License) IsValid(now time.Time) bool {
	now = now.UTC()
	if l.ValidFrom != nil && now.Before(l.ValidFrom.UTC()) {
		return false
	}
	if l.ValidUntil != nil && now.After(l.ValidUntil.UTC()) {
		return false
	}
	if l.MaxRequests != nil && l.used.Load() >= *l.MaxRequests {
		return false
	}
	return true
}

// CheckAndConsume validates the license and, when a quota is set, claims one
// call. The claim is a compare-and-swap so concurrent callers can never push
// the counter past the quota.
func (l *License) CheckAndConsume(now time.Time) bool {
	now = now.UTC()
	if l.ValidFrom != nil && now.Before(l.ValidFrom.UTC()) {
		return false
	}
	if l.ValidUntil != nil && now.After(l.ValidUntil.UTC()) {
		return false
	}
	if l.MaxRequests == nil {
		return true
	}
	for {
		used := l.used.Load()
		if used >= *l.MaxRequests {
			return false
		}
		if l.used.CompareAndSwap(used, used+1) {
			return true
		}
	}
}

// Used returns the number of quota claims so far.
func (l *License) Used() int64 {
	return l.used.Load()
}

// Info is a point-in-time snapshot of a license for inspection endpoints.
type Info struct {
	FeatureID   string     `json:"feature_id"`
	Type        Type       `json:"license_type"`
	Valid       bool       `json:"valid"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	MaxRequests *int64     `json:"max_requests,omitempty"`
	Used        int64      `json:"requests_used"`
}

// Snapshot returns the license state as of now.
func (l *License) Snapshot(now time.Time) Info {
	return Info{
		FeatureID:   l.FeatureID,
		Type:        l.Type,
		Valid:       l.IsValid(now),
		ValidFrom:   l.ValidFrom,
		ValidUntil:  l.ValidUntil,
		MaxRequests: l.MaxRequests,
		Used:        l.used.Load(),
	}
}
