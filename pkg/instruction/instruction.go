// Package instruction compiles the wildcard package patterns used in
// Export-Package and Import-Package instructions.
//
// A pattern is translated character by character into an anchored regular
// expression:
//
//	.   matches a literal dot
//	*   matches any sequence
//	?   matches zero or one character
//
// Every other character is copied into the expression unchanged, so
// characters such as '+' or '(' keep their regular expression meaning. A
// leading '!' negates the instruction. Negation is reported by [Instruction.Negated]
// and is never folded into [Instruction.Matches]; callers decide what a
// negated match means.
//
// A pattern ending in ".*" also matches the package named by its prefix:
// "com.acme.*" matches both "com.acme.api" and "com.acme".
package instruction

import (
	"regexp"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// wildcardSuffix is the translation of a trailing ".*".
const wildcardSuffix = `\..*`

// Instruction is a compiled package pattern.
type Instruction struct {
	source   string
	pattern  string
	re       *regexp.Regexp
	negated  bool
	optional bool
}

// Compile translates source into an Instruction.
// It returns a *errors.PatternCompileError when the translation is not a
// valid regular expression.
func Compile(source string) (*Instruction, error) {
	text := source
	negated := strings.HasPrefix(text, "!")
	if negated {
		text = text[1:]
	}

	pattern := translate(text)
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, &errors.PatternCompileError{Source: source, Regexp: pattern, Cause: err}
	}
	return &Instruction{
		source:  source,
		pattern: pattern,
		re:      re,
		negated: negated,
	}, nil
}

// MustCompile is like Compile but panics if the pattern does not compile.
func MustCompile(source string) *Instruction {
	in, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return in
}

func translate(text string) string {
	var sb strings.Builder
	for _, c := range text {
		switch c {
		case '.':
			sb.WriteString(`\.`)
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".?")
		default:
			sb.WriteRune(c)
		}
	}
	s := sb.String()
	if strings.HasSuffix(s, wildcardSuffix) {
		s += "|" + strings.TrimSuffix(s, wildcardSuffix)
	}
	return s
}

// Matches reports whether s matches the pattern in full.
func (in *Instruction) Matches(s string) bool {
	return in.re.MatchString(s)
}

// Negated reports whether the instruction started with '!'.
func (in *Instruction) Negated() bool { return in.negated }

// Optional reports whether an unmatched instruction should be reported.
func (in *Instruction) Optional() bool { return in.optional }

// WithOptional returns a copy of the instruction with the optional flag set.
func (in *Instruction) WithOptional(optional bool) *Instruction {
	cp := *in
	cp.optional = optional
	return &cp
}

// Source returns the instruction text as written.
func (in *Instruction) Source() string { return in.source }

// Pattern returns the translated regular expression without anchors.
func (in *Instruction) Pattern() string { return in.pattern }

// Key identifies the instruction for set membership. Two instructions share
// a key when they compiled to the same pattern with the same negation.
func (in *Instruction) Key() string {
	if in.negated {
		return "!" + in.pattern
	}
	return in.pattern
}

// Equal reports whether both instructions compiled to the same pattern.
func (in *Instruction) Equal(other *Instruction) bool {
	if in == nil || other == nil {
		return in == other
	}
	return in.pattern == other.pattern
}

// String returns the source text.
func (in *Instruction) String() string { return in.source }

// HasWildcard reports whether text uses any pattern syntax, in which case
// an unmatched import instruction cannot be added literally.
func HasWildcard(text string) bool {
	return strings.HasPrefix(text, "!") || strings.ContainsAny(text, "*?[")
}
