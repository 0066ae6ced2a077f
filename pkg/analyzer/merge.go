package analyzer

import (
	"fmt"
	"maps"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/header"
	"github.com/matzehuels/bundlescope/pkg/instruction"
)

// Merge resolves instructions against the actual packages and returns the
// selected clauses. kind names the header in errors ("export-package").
//
// Instructions are applied in order and every actual package is claimed by
// the first instruction that matches it:
//
//   - a name starting with '=' is copied to the result literally, without
//     the '=', whether or not it matches anything
//   - a name ending in the duplicate marker is copied verbatim
//   - any other name is compiled; each unclaimed actual package it matches
//     is claimed and added with the actual attributes overlaid by the
//     instruction attributes, or, for a negated instruction, added to
//     ignored instead (when ignored is non-nil)
//
// Every compiled instruction that claimed something is removed from
// superfluous, which may be nil. Literal and duplicate-marked names are
// never tracked there. Neither instructions nor actual are modified. An
// instruction that does not compile aborts the merge with an error.
func Merge(kind string, instructions, actual *header.Clauses, superfluous *instruction.Set, ignored *header.Clauses) (*header.Clauses, error) {
	candidates := actual.Names()
	claimed := make([]bool, len(candidates))
	result := header.New()

	for _, name := range instructions.Names() {
		attrs, _ := instructions.Get(name)

		if strings.HasPrefix(name, "=") {
			result.Set(name[1:], attrs.Clone())
			continue
		}
		if header.IsDuplicate(name) {
			result.Set(name, attrs.Clone())
			continue
		}

		instr, err := instruction.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}

		for i, pkg := range candidates {
			if claimed[i] || !instr.Matches(pkg) {
				continue
			}
			claimed[i] = true
			if superfluous != nil {
				superfluous.Remove(instr)
			}
			if !instr.Negated() {
				merged, _ := actual.Get(pkg)
				merged = merged.Clone()
				maps.Copy(merged, attrs)
				result.Set(pkg, merged)
			} else if ignored != nil {
				ignored.Set(pkg, nil)
			}
		}
	}
	return result, nil
}

// trackInstructions compiles the instructions that are expected to match
// something, for use as Merge's superfluous set. Literal and
// duplicate-marked names are skipped, as is any name keep rejects. An
// instruction with resolution:=optional is marked optional.
func trackInstructions(kind string, instructions *header.Clauses, keep func(name string) bool) (*instruction.Set, error) {
	set := instruction.NewSet()
	for _, name := range instructions.Names() {
		if strings.HasPrefix(name, "=") || header.IsDuplicate(name) {
			continue
		}
		if keep != nil && !keep(name) {
			continue
		}
		instr, err := instruction.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		attrs, _ := instructions.Get(name)
		set.Add(instr.WithOptional(attrs[ResolutionDirective] == "optional"))
	}
	return set, nil
}
