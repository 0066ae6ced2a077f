package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "acme", false},
		{"valid dotted", "com.acme.api", false},
		{"valid underscore", "com.acme_impl", false},
		{"valid dollar", "com.acme$gen", false},
		{"valid unicode", "org.über", false},

		{"empty", "", true},
		{"default package", ".", true},
		{"too long", strings.Repeat("a.", 300) + "a", true},
		{"leading digit", "com.1acme", true},
		{"empty segment", "com..acme", true},
		{"trailing dot", "com.acme.", true},
		{"slash form", "com/acme", true},
		{"control char", "com.\x01acme", true},
		{"wildcard", "com.acme.*", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"class file", "com/acme/Foo.class", false},
		{"packageinfo", "com/acme/packageinfo", false},
		{"root resource", "plugin.xml", false},
		{"dotted file name", "a/b..c", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "com/../../etc", true},
		{"backslash", "com\\acme", true},
		{"null byte", "com/\x00acme", true},
		{"too long", strings.Repeat("a/", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCacheURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"redis://localhost:6379/0", false},
		{"rediss://cache.internal:6380", false},
		{"", true},
		{"http://localhost", true},
		{"localhost:6379", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCacheURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCacheURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}
