package authorize

import "testing"

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		domain Domain
		want   bool
	}{
		{DomainSys, true},
		{WildcardDomain, true},
		{UserDomain("t1"), true},
		{UserDomain("550e8400-e29b-41d4-a716-446655440000"), true},
		{Domain(""), false},
		{Domain("random"), false},
		{Domain("user:"), false},
		{Domain("user:has space"), false},
		{Domain("clinic:abc"), false},
	}
	for _, tt := range tests {
		if got := IsValidDomain(tt.domain); got != tt.want {
			t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestRoleFor(t *testing.T) {
	tests := []struct {
		claim string
		want  Role
		ok    bool
	}{
		{"therapist", RoleTherapist, true},
		{" Instructor ", RoleInstructor, true},
		{"patient", RolePatient, true},
		{"admin", RoleAdmin, true},
		{"nurse", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := RoleFor(tt.claim)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("RoleFor(%q) = %q, %v", tt.claim, got, ok)
		}
	}
}

func TestKnownConstants(t *testing.T) {
	for _, p := range DefaultPolicies() {
		if _, ok := KnownRoles[p.Subject]; !ok {
			t.Errorf("policy uses unknown role %q", p.Subject)
		}
		if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
			t.Errorf("policy uses unknown resource %q", p.Object)
		}
		if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
			t.Errorf("policy uses unknown action %q", p.Action)
		}
	}
}
