package analyzer

import (
	"slices"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/header"
	"github.com/matzehuels/bundlescope/pkg/instruction"
	"github.com/matzehuels/bundlescope/pkg/version"
)

// augmentImports decorates every import with what is known about its
// exporter: the version range, mandatory attributes and the -import:
// directive. Attribute values are macro expanded afterwards, and
// attributes selected by -remove-attribute: or valued "!" are dropped.
func (a *Analyzer) augmentImports() {
	for _, pkg := range a.imports.Names() {
		a.props[CurrentPackage] = pkg
		attrs, _ := a.imports.Get(pkg)

		exporter, ok := a.classpathExports.Get(pkg)
		if !ok {
			exporter, ok = a.exports.Get(pkg)
		}
		if ok {
			a.augmentVersion(attrs, exporter)
			augmentMandatory(attrs, exporter)
			if v, ok := exporter[ImportDirective]; ok {
				attrs[ImportDirective] = v
			}
		}

		for _, k := range attrs.Keys() {
			if strings.Contains(attrs[k], "$") {
				attrs[k] = a.macros.Process(attrs[k])
			}
		}

		var remove *instruction.Instruction
		if pattern, ok := attrs[RemoveAttributeDirective]; ok {
			delete(attrs, RemoveAttributeDirective)
			var err error
			if remove, err = instruction.Compile(pattern); err != nil {
				a.diag.Errorf("Invalid %s on %s: %v", RemoveAttributeDirective, pkg, err)
			}
		}
		for k, v := range attrs {
			if v == "!" || remove != nil && remove.Matches(k) {
				delete(attrs, k)
			}
		}
		delete(a.props, CurrentPackage)
	}
}

// augmentVersion sets the import version from the exporter version. An
// import that already has a version may refer to the exporter version as
// ${@}; otherwise the version policy applies.
func (a *Analyzer) augmentVersion(attrs, exporter header.Attrs) {
	v, ok := exporter["version"]
	if !ok {
		v, ok = exporter["specification-version"]
	}
	if !ok {
		return
	}

	a.props[ExporterVersion] = version.Cleanup(v)
	defer delete(a.props, ExporterVersion)

	if r, ok := attrs["version"]; ok {
		attrs["version"] = a.macros.Process(version.Cleanup(r))
		return
	}
	attrs["version"] = a.property(VersionPolicy, DefaultVersionPolicy)
}

// augmentMandatory copies the attributes an exporter declares mandatory.
func augmentMandatory(attrs, exporter header.Attrs) {
	mandatory, ok := exporter[MandatoryDirective]
	if !ok {
		return
	}
	for _, name := range header.SplitList(mandatory) {
		if _, ok := attrs[name]; !ok {
			attrs[name] = exporter[name]
		}
	}
}

// doUses adds a uses: directive to every export listing the packages it
// uses that are imported or exported. An existing uses: directive is kept
// as a template: UsesMarker or ${@uses} stands for the computed list.
func (a *Analyzer) doUses() {
	if a.isTrue(NoUses) {
		return
	}
	for _, pkg := range a.exports.Names() {
		used, ok := a.graph.Uses[pkg]
		if !ok {
			continue
		}
		a.props[CurrentPackage] = pkg
		clause, _ := a.exports.Get(pkg)

		var shared []string
		for _, u := range used {
			if u == pkg || strings.HasPrefix(u, "java.") {
				continue
			}
			if a.imports.Has(u) || a.exports.Has(u) {
				shared = append(shared, u)
			}
		}
		slices.Sort(shared)
		computed := strings.Join(shared, ",")

		override, ok := clause[UsesDirective]
		if !ok {
			override = UsesMarker
		}
		if strings.Contains(override, "$") {
			a.props[CurrentUses] = computed
			override = a.macros.Process(override)
			delete(a.props, CurrentUses)
		} else {
			override = strings.TrimSpace(strings.ReplaceAll(override, UsesMarker, computed))
		}
		override = strings.TrimPrefix(strings.TrimSuffix(override, ","), ",")
		if override != "" {
			clause[UsesDirective] = override
		}
		delete(a.props, CurrentPackage)
	}
}
