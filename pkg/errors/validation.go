package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// javaPackageRegex matches dotted Java package names. Each segment must be a
// Java identifier; "." is the sentinel for the default package and is
// handled separately.
var javaPackageRegex = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// ValidatePackageName validates a dotted Java package name such as
// "com.acme.api".
//
// The validation rules:
//   - No empty names
//   - No control characters
//   - Maximum length of 512 characters
//   - Each dot-separated segment is a Java identifier
//   - The default package sentinel "." is rejected
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if name == "." {
		return New(ErrCodeInvalidPackage, "the default package cannot be named")
	}
	if len(name) > 512 {
		return New(ErrCodeInvalidPackage, "package name too long (max 512 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}
	if !javaPackageRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Java package name: %q", name)
	}
	return nil
}

// ValidatePath validates a resource path inside an archive.
// It prevents path traversal and rejects paths that cannot come from a jar.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateCacheURL validates a shared cache URL.
// Only redis:// and rediss:// URLs are accepted.
func ValidateCacheURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "cache URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidInput, "cache URL must use redis or rediss scheme")
	}
	return nil
}
