package classfile

import "strings"

// ReferencesOf returns the internal names of the class types embedded in a
// field or method descriptor, in order of first appearance. Primitive types
// and array dimensions contribute nothing.
//
//	ReferencesOf("(I[[Lcom/acme/Foo;)Lcom/acme/Bar;") // [com/acme/Foo com/acme/Bar]
func ReferencesOf(descriptor string) []string {
	var out []string
	seen := make(map[string]bool)
	for i := 0; i < len(descriptor); i++ {
		if descriptor[i] != 'L' {
			continue
		}
		end := strings.IndexByte(descriptor[i:], ';')
		if end < 0 {
			// Not a descriptor; a bare class name such as "com/acme/Foo".
			break
		}
		name := descriptor[i+1 : i+end]
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
		i += end
	}
	return out
}

// normalize reduces a class constant to an internal class name. Array
// descriptors lose their dimensions; arrays of primitives yield "".
func normalize(s string) string {
	if !strings.HasPrefix(s, "[") {
		return s
	}
	s = strings.TrimLeft(s, "[")
	if strings.HasPrefix(s, "L") && strings.HasSuffix(s, ";") {
		return s[1 : len(s)-1]
	}
	return ""
}

// PackageOf returns the dotted package of an internal class name, or "."
// for a class in the default package.
func PackageOf(internalName string) string {
	n := strings.LastIndexByte(internalName, '/')
	if n < 0 {
		return "."
	}
	return strings.ReplaceAll(internalName[:n], "/", ".")
}

// isCore reports whether an internal name belongs to the java. namespace.
func isCore(internalName string) bool {
	return strings.HasPrefix(internalName, "java/")
}
