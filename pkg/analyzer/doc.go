// Package analyzer computes the OSGi package metadata of a jar.
//
// # Overview
//
// An analysis walks the jar, parses every class with [classfile.Parse] and
// aggregates the references into a package graph:
//
//   - contained: packages that hold a resource of the jar
//   - referred: packages some class references
//   - uses: for each package, the packages its classes reference
//
// The Export-Package and Import-Package instructions are then resolved
// against that graph with [Merge]. Exports select from the contained
// packages; imports select from the referred packages that are not
// contained, plus the exports. Imports are decorated with version ranges
// taken from classpath jars, and exports receive a uses: directive.
//
// # Usage
//
//	a := analyzer.New(analyzer.Options{Logger: logger})
//	defer a.Close()
//
//	jar, err := analyzer.Open("target/classes")
//	if err != nil {
//	    return err
//	}
//	a.SetJar(jar)
//	a.Set(analyzer.ExportPackage, "com.acme.api.*")
//	a.Set(analyzer.ImportPackage, "*")
//
//	if err := a.Analyze(ctx); err != nil {
//	    return err
//	}
//	fmt.Println(a.Headers()[analyzer.ImportPackage])
//
// # Instructions
//
// Instruction names are wildcard patterns compiled by the instruction
// package. Each package is claimed by the first instruction that matches
// it, so order matters:
//
//	Export-Package: !com.acme.impl.*, com.acme.*
//
// A name starting with '=' is exported or imported literally. Attribute
// values may contain macros, see the macro package; while an import is
// decorated the properties @package and @ (the exporter version) are set.
//
// # Diagnostics
//
// Malformed classes, superfluous instructions and unresolved macros do not
// stop an analysis. They are collected and available from
// [Analyzer.Warnings] and [Analyzer.Errors] once [Analyzer.Analyze]
// returns.
package analyzer
