package classfile

import (
	"encoding/binary"
)

// classBuilder assembles class files for tests. Pool indices are handed out
// in call order, matching how a compiler lays out the constant pool.
type classBuilder struct {
	pool  []byte
	next  int
	utf8s map[string]int

	access     int
	this       int
	super      int
	interfaces []int
	fields     []member
	methods    []member
	attrs      [][]byte
}

type member struct {
	name, desc int
	attrs      [][]byte
}

func newClass(name, super string) *classBuilder {
	b := &classBuilder{next: 1, utf8s: make(map[string]int)}
	b.this = b.class(name)
	if super != "" {
		b.super = b.class(super)
	}
	return b
}

func u2(v int) []byte { return binary.BigEndian.AppendUint16(nil, uint16(v)) }
func u4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func (b *classBuilder) add(body ...byte) int {
	i := b.next
	b.pool = append(b.pool, body...)
	b.next++
	return i
}

func (b *classBuilder) utf8(s string) int {
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	body := append([]byte{tagUtf8}, u2(len(s))...)
	i := b.add(append(body, s...)...)
	b.utf8s[s] = i
	return i
}

func (b *classBuilder) class(name string) int {
	n := b.utf8(name)
	return b.add(append([]byte{tagClass}, u2(n)...)...)
}

func (b *classBuilder) str(s string) int {
	n := b.utf8(s)
	return b.add(append([]byte{tagString}, u2(n)...)...)
}

func (b *classBuilder) long(v uint64) int {
	i := b.add(append([]byte{tagLong}, binary.BigEndian.AppendUint64(nil, v)...)...)
	b.next++
	return i
}

func (b *classBuilder) double() int {
	i := b.add(append([]byte{tagDouble}, make([]byte, 8)...)...)
	b.next++
	return i
}

func (b *classBuilder) integer(v uint32) int {
	return b.add(append([]byte{tagInteger}, u4(v)...)...)
}

func (b *classBuilder) nameAndType(name, desc string) int {
	n, d := b.utf8(name), b.utf8(desc)
	body := append([]byte{tagNameAndType}, u2(n)...)
	return b.add(append(body, u2(d)...)...)
}

func (b *classBuilder) methodref(owner, name, desc string) int {
	c := b.class(owner)
	nt := b.nameAndType(name, desc)
	body := append([]byte{tagMethodref}, u2(c)...)
	return b.add(append(body, u2(nt)...)...)
}

func (b *classBuilder) implements(names ...string) *classBuilder {
	for _, n := range names {
		b.interfaces = append(b.interfaces, b.class(n))
	}
	return b
}

func (b *classBuilder) field(name, desc string, attrs ...[]byte) *classBuilder {
	b.fields = append(b.fields, member{b.utf8(name), b.utf8(desc), attrs})
	return b
}

func (b *classBuilder) method(name, desc string, attrs ...[]byte) *classBuilder {
	b.methods = append(b.methods, member{b.utf8(name), b.utf8(desc), attrs})
	return b
}

func (b *classBuilder) classAttr(attr []byte) *classBuilder {
	b.attrs = append(b.attrs, attr)
	return b
}

// attr encodes an attribute with its name and length header.
func (b *classBuilder) attr(name string, body []byte) []byte {
	out := u2(b.utf8(name))
	out = append(out, u4(uint32(len(body)))...)
	return append(out, body...)
}

// codeAttr wraps bytecode in a Code attribute with no exception table.
func (b *classBuilder) codeAttr(code []byte) []byte {
	body := append(u2(2), u2(1)...)
	body = append(body, u4(uint32(len(code)))...)
	body = append(body, code...)
	body = append(body, u2(0)...) // exception table
	body = append(body, u2(0)...) // attributes
	return b.attr("Code", body)
}

// sourceFile builds a SourceFile attribute.
func (b *classBuilder) sourceFile(name string) []byte {
	return b.attr("SourceFile", u2(b.utf8(name)))
}

func (b *classBuilder) bytes() []byte {
	out := u4(Magic)
	out = append(out, u2(0)...)  // minor
	out = append(out, u2(52)...) // major
	out = append(out, u2(b.next)...)
	out = append(out, b.pool...)
	out = append(out, u2(b.access)...)
	out = append(out, u2(b.this)...)
	out = append(out, u2(b.super)...)
	out = append(out, u2(len(b.interfaces))...)
	for _, i := range b.interfaces {
		out = append(out, u2(i)...)
	}
	for _, members := range [][]member{b.fields, b.methods} {
		out = append(out, u2(len(members))...)
		for _, m := range members {
			out = append(out, u2(0)...)
			out = append(out, u2(m.name)...)
			out = append(out, u2(m.desc)...)
			out = append(out, u2(len(m.attrs))...)
			for _, a := range m.attrs {
				out = append(out, a...)
			}
		}
	}
	out = append(out, u2(len(b.attrs))...)
	for _, a := range b.attrs {
		out = append(out, a...)
	}
	return out
}
