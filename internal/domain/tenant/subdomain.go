package tenant

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// reservedHostLabels are first host labels that never route to a tenant.
var reservedHostLabels = map[string]bool{
	"www":       true,
	"localhost": true,
	"127":       true,
}

// reservedSubdomains may not be claimed by any tenant at creation time.
// Superset of reservedHostLabels: these also shadow platform endpoints.
var reservedSubdomains = map[string]bool{
	"www":       true,
	"localhost": true,
	"127":       true,
	"admin":     true,
	"api":       true,
	"mail":      true,
}

var subdomainRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,18}[a-z0-9])?$`)

// MaxSubdomainLength is the longest subdomain a tenant may claim.
const MaxSubdomainLength = 20

// SubdomainFromHost extracts the candidate tenant subdomain from a request
// host. The port is stripped, then the host is split on dots. A candidate is
// returned for any host with more than one label whose first label is not
// reserved; enforcement of tenant matching additionally requires more than
// two labels (see EnforceableHost). The asymmetry keeps the bare apex domain
// resolving no tenant without ever producing a 404.
func SubdomainFromHost(host string) (string, bool) {
	labels := hostLabels(host)
	if len(labels) < 2 {
		return "", false
	}
	first := labels[0]
	if first == "" || reservedHostLabels[first] {
		return "", false
	}
	return first, true
}

// EnforceableHost reports whether the host has enough labels for the access
// policy to enforce tenant matching (strictly more than two, so
// "sub.example.com" qualifies and "example.com" does not).
func EnforceableHost(host string) bool {
	labels := hostLabels(host)
	if len(labels) <= 2 {
		return false
	}
	return !reservedHostLabels[labels[0]]
}

func hostLabels(host string) []string {
	host = strings.Split(host, ":")[0]
	if host == "" {
		return nil
	}
	return strings.Split(host, ".")
}

// IsValidSubdomain reports whether value may be claimed as a tenant
// subdomain: 3-20 chars, lowercase alphanumerics and inner hyphens, not
// reserved.
func IsValidSubdomain(value string) bool {
	if len(value) < 3 || len(value) > MaxSubdomainLength {
		return false
	}
	if reservedSubdomains[value] {
		return false
	}
	return subdomainRe.MatchString(value)
}

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	multiHyphen  = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a subdomain candidate from an arbitrary display name.
// Non-ASCII is dropped, everything else is lowercased, runs of invalid
// characters collapse to single hyphens, and the result is trimmed to
// MaxSubdomainLength.
func Slugify(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	s := invalidChars.ReplaceAllString(b.String(), "-")
	s = multiHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSubdomainLength {
		s = strings.TrimRight(s[:MaxSubdomainLength], "-")
	}
	return s
}

// UniqueCandidate returns a valid subdomain derived from base that exists
// returns false for. Numeric suffixes are tried first, then a short random
// token.
func UniqueCandidate(base string, exists func(string) bool) string {
	base = Slugify(base)
	if base == "" {
		base = "tenant"
	}

	if IsValidSubdomain(base) && !exists(base) {
		return base
	}

	for i := 1; i < 1000; i++ {
		suffix := fmt.Sprintf("-%d", i)
		limit := MaxSubdomainLength - len(suffix)
		candidate := strings.TrimRight(truncate(base, limit), "-") + suffix
		if IsValidSubdomain(candidate) && !exists(candidate) {
			return candidate
		}
	}

	token := randomToken(3)
	limit := MaxSubdomainLength - len(token) - 1
	return strings.TrimRight(truncate(base, limit), "-") + "-" + token
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func randomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
