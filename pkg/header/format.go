package header

import (
	"regexp"
	"slices"
	"strings"
)

// token matches values that need no quoting.
var token = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Format renders clauses as header text. Duplicate markers are removed from
// names. Directives are written only when listed in allowedDirectives or
// when they start with "x-"; attributes are always written. Values that are
// not simple tokens are quoted.
func Format(c *Clauses, allowedDirectives ...string) string {
	var sb strings.Builder
	del := ""
	c.Each(func(name string, attrs Attrs) {
		sb.WriteString(del)
		sb.WriteString(RemoveDuplicateMarker(name))
		formatClause(&sb, attrs, allowedDirectives)
		del = ","
	})
	return sb.String()
}

func formatClause(sb *strings.Builder, attrs Attrs, allowed []string) {
	for _, key := range attrs.Keys() {
		if IsDirective(key) && !strings.HasPrefix(key, "x-") && !slices.Contains(allowed, key) {
			continue
		}
		value := strings.TrimSpace(attrs[key])
		sb.WriteByte(';')
		sb.WriteString(key)
		sb.WriteByte('=')
		if isQuoted(value) || token.MatchString(value) {
			sb.WriteString(value)
			continue
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(value, `"`, `\"`))
		sb.WriteByte('"')
	}
}

func isQuoted(v string) bool {
	return len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"'
}
