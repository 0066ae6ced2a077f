// Package classfile extracts package references from compiled JVM classes.
//
// [Parse] reads the binary class file format far enough to learn which
// packages a class depends on. It resolves the superclass, the implemented
// interfaces, every class constant, every field and method descriptor, the
// types named by runtime visible annotations, and string constants that
// older compilers passed to Class.forName through a synthetic class$
// helper. It does not verify bytecode.
//
// The result is a [Record]: an immutable summary that keeps the class name,
// its supertypes, the referenced packages and the source file name. The
// constant pool and other parse buffers are dropped once Parse returns.
//
// References to packages under java. are never reported.
//
// # Example
//
//	rec, err := classfile.Parse("com/acme/Foo.class", data)
//	if err != nil {
//	    var mce *errors.MalformedClassError
//	    if errors.As(err, &mce) {
//	        // record a diagnostic and skip this class
//	    }
//	}
//	fmt.Println(rec.Referred) // [com.acme.spi org.slf4j]
package classfile
