package analyzer

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/bundlescope/pkg/classfile"
	"github.com/matzehuels/bundlescope/pkg/errors"
	"github.com/matzehuels/bundlescope/pkg/instruction"
)

// Query selects classes of the analyzed jar. Arguments come in pairs of a
// query keyword and a dotted pattern; a class must satisfy every pair:
//
//	Query("implementing", "com.acme.spi.*", "named", "*Impl")
//
// The result holds fully qualified names, sorted. Query is meaningful only
// after Analyze.
func (a *Analyzer) Query(args ...string) ([]string, error) {
	if len(args)%2 != 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"${classes} macro must have odd number of arguments. %s", classesHelp)
	}
	matched := make([]*classfile.Record, 0, len(a.graph.Classes))
	for _, rec := range a.graph.Classes {
		matched = append(matched, rec)
	}

	for i := 0; i < len(args); i += 2 {
		query, ok := classfile.ParseQuery(args[i])
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"${classes} has invalid type: %s. %s", args[i], classesHelp)
		}
		// Patterns are written dotted but matched against internal names.
		instr, err := instruction.Compile(strings.ReplaceAll(args[i+1], ".", "/"))
		if err != nil {
			return nil, err
		}
		matched = slices.DeleteFunc(matched, func(rec *classfile.Record) bool {
			return !rec.Is(query, instr, a.space)
		})
	}

	out := make([]string, 0, len(matched))
	for _, rec := range matched {
		out = append(out, rec.FQN())
	}
	slices.Sort(out)
	return out, nil
}

const classesHelp = "${classes;'implementing'|'extending'|'importing'|'named'|'version'|'any';<pattern>}, " +
	"Return a list of class fully qualified class names that extend/implement/import any of the contained classes matching the pattern"

// classDomain exposes the class space and the jar contents to macros.
type classDomain struct{ a *Analyzer }

func (d classDomain) TryInvoke(name string, args []string) (string, bool, error) {
	switch name {
	case "classes":
		names, err := d.a.Query(args[1:]...)
		if err != nil {
			return "", false, err
		}
		return strings.Join(names, ","), true, nil
	case "exporters":
		return d.exporters(args)
	case "findpath":
		return d.findPath(args, true)
	case "findname":
		return d.findPath(args, false)
	}
	return "", false, nil
}

// exporters implements ${exporters;<package>}: the classpath jars that
// hold the package.
func (d classDomain) exporters(args []string) (string, bool, error) {
	if len(args) != 2 {
		return "", false, fmt.Errorf("${exporters;<packagename>}, returns the list of jars that export the given package")
	}
	dir := strings.ReplaceAll(args[1], ".", "/")
	var out []string
	for _, j := range d.a.classpath {
		if Directories(j)[dir] {
			out = append(out, j.Name())
		}
	}
	return strings.Join(out, ","), true, nil
}

// findPath implements ${findpath;<regexp>;<replacement>} and its findname
// twin, which matches file names instead of full paths.
func (d classDomain) findPath(args []string, fullPath bool) (string, bool, error) {
	if len(args) > 3 {
		return "", false, fmt.Errorf("invalid nr of arguments to %s %v, syntax: ${%s (; reg-expr (; replacement)? )? }", args[0], args, args[0])
	}
	if d.a.jar == nil {
		return "", true, nil
	}
	expr := ".*"
	if len(args) > 1 {
		expr = args[1]
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return "", false, err
	}

	var out []string
	for _, p := range d.a.jar.Resources() {
		if !fullPath {
			p = path.Base(p)
		}
		if !re.MatchString(p) {
			continue
		}
		if len(args) > 2 {
			p = re.ReplaceAllString(p, args[2])
		}
		out = append(out, p)
	}
	return strings.Join(out, ", "), true, nil
}
