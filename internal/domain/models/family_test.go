package models

import "testing"

func TestValidFamilyID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f2b8c1e-6a4d-4f7e-9b1a-2c5d8e0f1a2b", true},
		{"family-42", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../etc", false},
		{"a/b", false},
		{`a\b`, false},
		{".hidden", false},
		{"tab\tid", false},
	}
	for _, tt := range tests {
		if got := ValidFamilyID(tt.id); got != tt.want {
			t.Errorf("ValidFamilyID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
