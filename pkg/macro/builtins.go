package macro

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/bundlescope/pkg/errors"
	"github.com/matzehuels/bundlescope/pkg/header"
	"github.com/matzehuels/bundlescope/pkg/instruction"
	"github.com/matzehuels/bundlescope/pkg/version"
)

// builtin implements one function. ok == false hands the reference on to
// environment lookup, as if the function did not exist.
type builtin func(e *Expander, args []string) (value string, ok bool, err error)

var builtinTable map[string]builtin

func init() {
	builtinTable = map[string]builtin{
		"uniq":        uniq,
		"filter":      func(e *Expander, a []string) (string, bool, error) { return filter(a, true) },
		"filterout":   func(e *Expander, a []string) (string, bool, error) { return filter(a, false) },
		"sort":        sortList,
		"join":        join,
		"if":          ifThen,
		"now":         now,
		"fmodified":   fmodified,
		"long2date":   long2date,
		"literal":     literal,
		"def":         def,
		"replace":     replace,
		"warning":     warning,
		"error":       errorf,
		"toclassname": toClassName,
		"toclasspath": toClassPath,
		"dir":         dir,
		"basename":    basename,
		"isfile":      isFile,
		"isdir":       isDir,
		"tstamp":      tstamp,
		"currenttime": currentTime,
		"lsr":         func(e *Expander, a []string) (string, bool, error) { return ls(e, a, true) },
		"lsa":         func(e *Expander, a []string) (string, bool, error) { return ls(e, a, false) },
		"version":     versionMask,
		"cat":         cat,
		"env":         env,
	}
}

// builtins is the Domain holding the built-in functions. It is always the
// last domain consulted.
type builtins struct{ e *Expander }

func (b builtins) TryInvoke(name string, args []string) (string, bool, error) {
	f, ok := builtinTable[name]
	if !ok {
		return "", false, nil
	}
	return f(b.e, args)
}

// verify checks the argument count, args[0] included.
func verify(args []string, low, high int) error {
	var problem string
	switch {
	case len(args) > high:
		problem = "too many arguments"
	case len(args) < low:
		problem = "too few arguments"
	default:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "${%s}, is not understood. %s", strings.Join(args, ";"), problem)
}

const unbounded = int(^uint(0) >> 1)

// clock is overridden in tests.
var clock = time.Now

// splitAll splits every argument as a comma separated list.
func splitAll(args []string) []string {
	var out []string
	for _, a := range args {
		out = append(out, header.SplitList(a)...)
	}
	return out
}

// =============================================================================
// Lists
// =============================================================================

func uniq(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 1, unbounded); err != nil {
		return "", false, err
	}
	var out []string
	for _, v := range splitAll(args[1:]) {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return strings.Join(out, ","), true, nil
}

func filter(args []string, keep bool) (string, bool, error) {
	if err := verify(args, 3, 3); err != nil {
		return "", false, err
	}
	re, err := regexp.Compile("^(?:" + args[2] + ")$")
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodePatternCompile, err, "${%s}: invalid expression", strings.Join(args, ";"))
	}
	var out []string
	for _, v := range header.SplitList(args[1]) {
		if re.MatchString(v) == keep {
			out = append(out, v)
		}
	}
	return strings.Join(out, ","), true, nil
}

func sortList(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, unbounded); err != nil {
		return "", false, err
	}
	out := splitAll(args[1:])
	slices.Sort(out)
	return strings.Join(out, ","), true, nil
}

func join(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 1, unbounded); err != nil {
		return "", false, err
	}
	return strings.Join(splitAll(args[1:]), ","), true, nil
}

// replace applies a regular expression replacement to every list element.
// Elements are joined with ", ".
func replace(e *Expander, args []string) (string, bool, error) {
	if len(args) != 4 {
		e.reporter.Warningf("Invalid nr of arguments to replace %v", args)
		return "", false, nil
	}
	re, err := regexp.Compile(args[2])
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodePatternCompile, err, "${%s}: invalid expression", strings.Join(args, ";"))
	}
	var out []string
	for _, v := range listSplit.Split(args[1], -1) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, re.ReplaceAllString(v, args[3]))
		}
	}
	return strings.Join(out, ", "), true, nil
}

var listSplit = regexp.MustCompile(`\s*,\s*`)

// =============================================================================
// Control
// =============================================================================

func ifThen(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 3, 4); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(args[1]) != "" {
		return args[2], true, nil
	}
	if len(args) > 3 {
		return args[3], true, nil
	}
	return "", true, nil
}

func literal(_ *Expander, args []string) (string, bool, error) {
	if len(args) != 2 {
		return "", false, errors.New(errors.ErrCodeInvalidInput, "Need a value for the ${literal;<value>} macro")
	}
	return "${" + args[1] + "}", true, nil
}

func def(e *Expander, args []string) (string, bool, error) {
	if len(args) != 2 {
		return "", false, errors.New(errors.ErrCodeInvalidInput, "Need a value for the ${def;<value>} macro")
	}
	v, _ := e.props.Get(args[1])
	return v, true, nil
}

func warning(e *Expander, args []string) (string, bool, error) {
	for _, a := range args[1:] {
		e.reporter.Warningf("%s", e.Process(a))
	}
	return "", true, nil
}

func errorf(e *Expander, args []string) (string, bool, error) {
	for _, a := range args[1:] {
		e.reporter.Errorf("%s", e.Process(a))
	}
	return "", true, nil
}

func env(e *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, 2); err != nil {
		return "", false, err
	}
	v, _ := e.LookupEnv(args[1])
	return v, true, nil
}

// =============================================================================
// Names and versions
// =============================================================================

func toClassName(e *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, 2); err != nil {
		return "", false, err
	}
	var out []string
	for _, p := range header.SplitList(args[1]) {
		switch {
		case strings.HasSuffix(p, ".class"):
			out = append(out, strings.ReplaceAll(strings.TrimSuffix(p, ".class"), "/", "."))
		case strings.HasSuffix(p, ".java"):
			out = append(out, strings.ReplaceAll(strings.TrimSuffix(p, ".java"), "/", "."))
		default:
			e.reporter.Warningf("in toclassname, %s is not a class path because it does not end in .class", args[1])
		}
	}
	return strings.Join(out, ","), true, nil
}

func toClassPath(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, 3); err != nil {
		return "", false, err
	}
	suffix := ".class"
	if len(args) > 2 && !strings.EqualFold(args[2], "true") {
		suffix = ""
	}
	var out []string
	for _, n := range header.SplitList(args[1]) {
		out = append(out, strings.ReplaceAll(n, ".", "/")+suffix)
	}
	return strings.Join(out, ","), true, nil
}

// versionMask implements ${version;<mask>;<version>}.
func versionMask(_ *Expander, args []string) (string, bool, error) {
	if err := verify(args, 3, 3); err != nil {
		return "", false, err
	}
	v, err := version.Parse(args[2])
	if err != nil {
		return "", false, err
	}
	s, err := v.Mask(args[1])
	return s, err == nil, err
}

// =============================================================================
// Time
// =============================================================================

const javaDateString = "Mon Jan 02 15:04:05 MST 2006"

func now(_ *Expander, _ []string) (string, bool, error) {
	return clock().Format(javaDateString), true, nil
}

func currentTime(_ *Expander, _ []string) (string, bool, error) {
	return strconv.FormatInt(clock().UnixMilli(), 10), true, nil
}

func long2date(_ *Expander, args []string) (string, bool, error) {
	if len(args) < 2 {
		return "not a valid long", true, nil
	}
	ms, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "not a valid long", true, nil
	}
	return time.UnixMilli(ms).Format(javaDateString), true, nil
}

// tstamp formats the current time, or the given epoch milliseconds, with a
// date pattern such as yyyyMMddHHmm.
func tstamp(e *Expander, args []string) (string, bool, error) {
	pattern := "yyyyMMddHHmm"
	t := clock()
	if len(args) > 1 {
		pattern = args[1]
	}
	if len(args) > 2 {
		ms, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return "", false, errors.Wrap(errors.ErrCodeInvalidInput, err, "${%s}: invalid time", strings.Join(args, ";"))
		}
		t = time.UnixMilli(ms)
	}
	if len(args) > 3 {
		e.reporter.Warningf("Too many arguments for tstamp: %v", args)
	}
	return t.Format(dateLayout(pattern)), true, nil
}

// dateLayout converts a date pattern in the yyyy/MM/dd notation used by
// build properties into a time layout. Unknown letters are copied.
func dateLayout(pattern string) string {
	fields := []struct{ from, to string }{
		{"yyyy", "2006"}, {"yy", "06"},
		{"MMMM", "January"}, {"MMM", "Jan"}, {"MM", "01"}, {"M", "1"},
		{"dd", "02"}, {"d", "2"},
		{"HH", "15"}, {"hh", "03"}, {"h", "3"},
		{"mm", "04"}, {"m", "4"},
		{"ss", "05"}, {"s", "5"},
		{"SSS", "000"},
		{"EEEE", "Monday"}, {"EEE", "Mon"},
		{"a", "PM"}, {"z", "MST"}, {"Z", "-0700"},
	}
	var sb strings.Builder
outer:
	for i := 0; i < len(pattern); {
		if pattern[i] == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				sb.WriteString(pattern[i+1:])
				break
			}
			sb.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}
		for _, f := range fields {
			if strings.HasPrefix(pattern[i:], f.from) {
				sb.WriteString(f.to)
				i += len(f.from)
				continue outer
			}
		}
		sb.WriteByte(pattern[i])
		i++
	}
	return sb.String()
}

// =============================================================================
// Files
// =============================================================================

func (e *Expander) abs(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	base := e.Base
	if base == "" {
		base, _ = os.Getwd()
	}
	return filepath.Join(base, name)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dir(e *Expander, args []string) (string, bool, error) {
	return eachFile(e, args, "dir", filepath.Dir)
}

func basename(e *Expander, args []string) (string, bool, error) {
	return eachFile(e, args, "basename", filepath.Base)
}

func eachFile(e *Expander, args []string, name string, f func(string) string) (string, bool, error) {
	if len(args) < 2 {
		e.reporter.Warningf("Need at least one file name for ${%s;...}", name)
		return "", false, nil
	}
	var out []string
	for _, a := range args[1:] {
		p := e.abs(a)
		if exists(p) && exists(filepath.Dir(p)) {
			out = append(out, f(p))
		}
	}
	return strings.Join(out, ","), true, nil
}

func isFile(e *Expander, args []string) (string, bool, error) {
	return allFiles(e, args, "isfile", func(fi os.FileInfo) bool { return fi.Mode().IsRegular() })
}

func isDir(e *Expander, args []string) (string, bool, error) {
	return allFiles(e, args, "isdir", os.FileInfo.IsDir)
}

func allFiles(e *Expander, args []string, name string, pred func(os.FileInfo) bool) (string, bool, error) {
	if len(args) < 2 {
		e.reporter.Warningf("Need at least one file name for ${%s;...}", name)
		return "", false, nil
	}
	for _, a := range args[1:] {
		fi, err := os.Stat(e.abs(a))
		if err != nil || !pred(fi) {
			return "false", true, nil
		}
	}
	return "true", true, nil
}

// fmodified returns the latest modification time of the listed files in
// epoch milliseconds.
func fmodified(e *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, unbounded); err != nil {
		return "", false, err
	}
	var latest int64
	for _, name := range splitAll(args[1:]) {
		if fi, err := os.Stat(e.abs(name)); err == nil && fi.ModTime().UnixMilli() > latest {
			latest = fi.ModTime().UnixMilli()
		}
	}
	return strconv.FormatInt(latest, 10), true, nil
}

// ls lists an absolute directory, optionally filtered by instructions.
// Each file is claimed by the first instruction that matches it; negated
// instructions claim without listing.
func ls(_ *Expander, args []string, relative bool) (string, bool, error) {
	if len(args) < 2 {
		return "", false, errors.New(errors.ErrCodeInvalidInput, "the ${ls} macro must at least have a directory as parameter")
	}
	root := args[1]
	if !filepath.IsAbs(root) {
		return "", false, errors.New(errors.ErrCodeInvalidInput, "the ${ls} macro directory parameter is not absolute: %s", root)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeFileNotFound, err, "the ${ls} macro directory parameter does not exist: %s", root)
	}
	if !fi.IsDir() {
		return "", false, errors.New(errors.ErrCodeInvalidInput, "the ${ls} macro directory parameter points to a file instead of a directory: %s", root)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", root)
	}
	files := make([]string, len(entries))
	for i, de := range entries {
		files[i] = de.Name()
	}

	format := func(name string) string {
		if relative {
			return name
		}
		return filepath.Join(root, name)
	}

	var out []string
	if len(args) < 3 {
		for _, f := range files {
			out = append(out, format(f))
		}
		return strings.Join(out, ","), true, nil
	}

	claimed := make([]bool, len(files))
	for _, pattern := range splitAll(args[2:]) {
		instr, err := instruction.Compile(pattern)
		if err != nil {
			return "", false, err
		}
		for i, f := range files {
			if claimed[i] || !instr.Matches(f) {
				continue
			}
			if !instr.Negated() {
				out = append(out, format(f))
			}
			claimed[i] = true
		}
	}
	return strings.Join(out, ","), true, nil
}

// cat returns a file's content with every line newline terminated, or the
// names in a directory.
func cat(e *Expander, args []string) (string, bool, error) {
	if err := verify(args, 2, 2); err != nil {
		return "", false, err
	}
	path := e.abs(args[1])
	fi, err := os.Stat(path)
	if err != nil {
		return "", false, nil
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
		}
		names := make([]string, len(entries))
		for i, de := range entries {
			names[i] = de.Name()
		}
		return "[" + strings.Join(names, ", ") + "]", true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	var sb strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		fmt.Fprintln(&sb, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	return sb.String(), true, nil
}
