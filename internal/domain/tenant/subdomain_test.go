package tenant_test

import (
	"testing"

	"github.com/openshelf/openshelf/internal/domain/tenant"
)

func TestSubdomainFromHost(t *testing.T) {
	tests := []struct {
		host string
		want string
		ok   bool
	}{
		{"acme.example.com", "acme", true},
		{"acme.example.com:8080", "acme", true},
		{"acme.example", "acme", true}, // two labels still resolve
		{"example.com", "example", true},
		{"www.example.com", "", false},
		{"localhost", "", false},
		{"localhost:5000", "", false},
		{"127.0.0.1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := tenant.SubdomainFromHost(tt.host)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SubdomainFromHost(%q) = (%q, %v), want (%q, %v)", tt.host, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnforceableHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"acme.example.com", true},
		{"acme.example.com:443", true},
		{"example.com", false}, // bare apex never enforced
		{"acme.example", false},
		{"localhost", false},
		{"www.example.com", false},
	}
	for _, tt := range tests {
		if got := tenant.EnforceableHost(tt.host); got != tt.want {
			t.Errorf("EnforceableHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestIsValidSubdomain(t *testing.T) {
	valid := []string{"acme", "acme-books", "a1b", "lib-42"}
	for _, s := range valid {
		if !tenant.IsValidSubdomain(s) {
			t.Errorf("IsValidSubdomain(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "ab", "-acme", "acme-", "Acme", "admin", "api", "www", "a..b", "this-subdomain-is-way-too-long"}
	for _, s := range invalid {
		if tenant.IsValidSubdomain(s) {
			t.Errorf("IsValidSubdomain(%q) = true, want false", s)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme Public Library", "acme-public-library"},
		{"  Foo   Bar  ", "foo-bar"},
		{"UPPER", "upper"},
		{"", ""},
		{"!!!", ""},
		{"the-very-long-library-of-alexandria", "the-very-long-librar"},
	}
	for _, tt := range tests {
		if got := tenant.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueCandidate(t *testing.T) {
	taken := map[string]bool{"acme": true, "acme-1": true}
	exists := func(s string) bool { return taken[s] }

	got := tenant.UniqueCandidate("Acme", exists)
	if got != "acme-2" {
		t.Errorf("UniqueCandidate = %q, want acme-2", got)
	}

	got = tenant.UniqueCandidate("Fresh Library", exists)
	if got != "fresh-library" {
		t.Errorf("UniqueCandidate = %q, want fresh-library", got)
	}

	// Empty base falls back to "tenant".
	got = tenant.UniqueCandidate("!!!", func(string) bool { return false })
	if got != "tenant" {
		t.Errorf("UniqueCandidate = %q, want tenant", got)
	}
}

func TestEntitled(t *testing.T) {
	tn := &tenant.Tenant{
		Entitlements: tenant.Entitlements{BookcoverAPI: true},
	}
	if !tn.Entitled(tenant.FeatureBookcoverAPI) {
		t.Error("expected bookcover_api entitlement")
	}
	if tn.Entitled(tenant.FeatureNationalCatalog) {
		t.Error("did not expect national_catalog entitlement")
	}
	if tn.Entitled("no_such_feature") {
		t.Error("unknown feature must never be entitled")
	}
}
