package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each tool or build
// environment sharing a Redis instance its own namespace.
//
// Example usage:
//
//	// Keys for a CI pipeline that must not see developer entries
//	ciKeyer := NewScopedKeyer(NewDefaultKeyer(), "ci:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RecordKey generates a prefixed key for a class record.
func (k *ScopedKeyer) RecordKey(classHash string) string {
	return k.prefix + k.inner.RecordKey(classHash)
}

// Prefix returns the namespace prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }
