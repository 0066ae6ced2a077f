// Package classtest builds minimal class files and jars for tests.
package classtest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"
)

// Class describes a minimal class file: a name, a superclass, interfaces
// and a class constant for every entry of Refs. Names are internal, such
// as "com/acme/Foo".
type Class struct {
	Name       string
	Super      string // java/lang/Object when empty
	Interfaces []string
	Refs       []string
}

// Bytes encodes the class as a Java 8 class file without fields, methods
// or attributes.
func (c Class) Bytes() []byte {
	be := binary.BigEndian
	var pool []byte
	count := 1
	class := func(name string) uint16 {
		pool = append(pool, 1) // Utf8
		pool = be.AppendUint16(pool, uint16(len(name)))
		pool = append(pool, name...)
		pool = append(pool, 7) // Class
		pool = be.AppendUint16(pool, uint16(count))
		count += 2
		return uint16(count - 1)
	}

	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}
	this := class(c.Name)
	sup := class(super)
	var ifaces []uint16
	for _, i := range c.Interfaces {
		ifaces = append(ifaces, class(i))
	}
	for _, r := range c.Refs {
		class(r)
	}

	out := be.AppendUint32(nil, 0xCAFEBABE)
	out = be.AppendUint16(out, 0)
	out = be.AppendUint16(out, 52)
	out = be.AppendUint16(out, uint16(count))
	out = append(out, pool...)
	out = be.AppendUint16(out, 0x0021)
	out = be.AppendUint16(out, this)
	out = be.AppendUint16(out, sup)
	out = be.AppendUint16(out, uint16(len(ifaces)))
	for _, i := range ifaces {
		out = be.AppendUint16(out, i)
	}
	out = be.AppendUint16(out, 0) // fields
	out = be.AppendUint16(out, 0) // methods
	out = be.AppendUint16(out, 0) // attributes
	return out
}

// Resources lays classes out at the paths their names imply.
func Resources(cs ...Class) map[string][]byte {
	out := make(map[string][]byte, len(cs))
	for _, c := range cs {
		out[c.Name+".class"] = c.Bytes()
	}
	return out
}

// Zip packs files into a zip archive, directory entries first.
func Zip(t testing.TB, files map[string][]byte, dirs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, d := range dirs {
		if _, err := w.Create(d); err != nil {
			t.Fatalf("create %s: %v", d, err)
		}
	}
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
