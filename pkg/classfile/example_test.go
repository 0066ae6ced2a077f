package classfile_test

import (
	"fmt"

	"github.com/matzehuels/bundlescope/pkg/classfile"
)

func ExampleReferencesOf() {
	fmt.Println(classfile.ReferencesOf("(I[[Lcom/acme/Foo;Ljava/util/List;)Lcom/acme/Bar;"))
	// Output: [com/acme/Foo java/util/List com/acme/Bar]
}

func ExamplePackageOf() {
	fmt.Println(classfile.PackageOf("com/acme/Foo$Inner"))
	fmt.Println(classfile.PackageOf("Main"))
	// Output:
	// com.acme
	// .
}
