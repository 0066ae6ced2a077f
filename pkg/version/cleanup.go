package version

import (
	"regexp"
	"strings"
)

var (
	fuzzyVersion      = regexp.MustCompile(`(?s)^(\d+)(\.(\d+)(\.(\d+))?)?([^a-zA-Z0-9](.*))?$`)
	fuzzyVersionRange = regexp.MustCompile(`(?s)^(\(|\[)\s*([-\da-zA-Z.]+)\s*,\s*([-\da-zA-Z.]+)\s*(\]|\))$`)
	fuzzyModifier     = regexp.MustCompile(`(?s)^(\d+[.-])*(.*)$`)
)

// Cleanup turns the loose versions used by other build tools into OSGi
// versions and ranges. Valid versions and ranges are returned unchanged.
//
//	Cleanup("1.2-SNAPSHOT")  // 1.2.0.SNAPSHOT
//	Cleanup("[1.0 , 2)")     // [1.0,2)
//	Cleanup("2.0.0.beta+1")  // 2.0.0.beta1
//
// Strings that look like neither are returned as is.
func Cleanup(v string) string {
	if ValidRange(v) {
		return v
	}
	if m := fuzzyVersionRange.FindStringSubmatch(v); m != nil {
		return m[1] + Cleanup(m[2]) + "," + Cleanup(m[3]) + m[4]
	}

	m := fuzzyVersion.FindStringSubmatchIndex(v)
	if m == nil {
		return v
	}
	group := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return v[m[2*i]:m[2*i+1]], true
	}
	major, _ := group(1)
	minor, hasMinor := group(3)
	micro, hasMicro := group(5)
	qualifier, hasQualifier := group(7)

	var sb strings.Builder
	sb.WriteString(major)
	switch {
	case hasMinor:
		sb.WriteString("." + minor)
		switch {
		case hasMicro:
			sb.WriteString("." + micro)
			if hasQualifier {
				sb.WriteString(".")
				cleanupQualifier(&sb, qualifier)
			}
		case hasQualifier:
			sb.WriteString(".0.")
			cleanupQualifier(&sb, qualifier)
		}
	case hasQualifier:
		sb.WriteString(".0.0.")
		cleanupQualifier(&sb, qualifier)
	}
	return sb.String()
}

// cleanupQualifier drops leading numeric segments and every character an
// OSGi qualifier does not allow.
func cleanupQualifier(sb *strings.Builder, q string) {
	if m := fuzzyModifier.FindStringSubmatch(q); m != nil {
		q = m[2]
	}
	for _, c := range q {
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '-' {
			sb.WriteRune(c)
		}
	}
}
