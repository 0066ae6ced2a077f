package classfile

import (
	"strings"

	"github.com/matzehuels/bundlescope/pkg/errors"
)

// Magic is the leading word of every class file.
const Magic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// skipLength is the body size of constant pool entries that carry nothing
// the parser needs. A zero entry marks a tag the parser cannot skip.
var skipLength = [...]int{
	tagInteger:            4,
	tagFloat:              4,
	tagLong:               8,
	tagDouble:             8,
	tagFieldref:           4,
	tagInterfaceMethodref: 4,
	tagMethodHandle:       3,
	tagDynamic:            4,
	tagInvokeDynamic:      4,
	tagModule:             2,
	tagPackage:            2,
}

// forNameDescriptor is the descriptor shared by Class.forName and the
// synthetic class$ helper.
const forNameDescriptor = "(Ljava/lang/String;)Ljava/lang/Class;"

const maxAttributeLength = 0x7FFFFFFF

// entry is one constant pool slot. For Class and String entries a is the
// index of the name; for Methodref and NameAndType a and b are the two
// indices of the pair.
type entry struct {
	tag  byte
	a, b int
	utf8 string
}

// parser holds the transient state of a single Parse call.
type parser struct {
	r    *reader
	pool []entry

	classes     []int
	descriptors []int

	forName     int
	classDollar int

	types    orderedSet
	packages orderedSet
}

// Parse reads one class file. The path is the resource path the bytes were
// loaded from and is only used in the returned record and in errors.
//
// Structural violations yield a *errors.MalformedClassError.
func Parse(path string, data []byte) (*Record, error) {
	p := &parser{
		r:           &reader{path: path, buf: data},
		forName:     -1,
		classDollar: -1,
	}
	return p.parse()
}

func (p *parser) parse() (*Record, error) {
	r := p.r
	if magic := r.u4(); r.err == nil && magic != Magic {
		r.off -= 4
		r.fail("not a valid class file (no CAFEBABE header)", nil)
	}
	minor := r.u2()
	major := r.u2()
	if err := p.readPool(); err != nil {
		return nil, err
	}

	r.u2() // access flags
	thisIndex := r.u2()
	superIndex := r.u2()
	if r.err != nil {
		return nil, r.err
	}

	name, err := p.className(thisIndex)
	if err != nil {
		return nil, err
	}
	rec := &Record{Path: r.path, Name: name, Major: major, Minor: minor}

	if superIndex != 0 {
		if rec.Super, err = p.className(superIndex); err != nil {
			return nil, err
		}
		p.reference(rec.Super)
	}

	n := r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		index := r.u2()
		if r.err != nil {
			break
		}
		iface, err := p.className(index)
		if err != nil {
			return nil, err
		}
		rec.Interfaces = append(rec.Interfaces, iface)
	}

	crawl := false
	n = r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		r.u2() // access flags
		nameIndex := r.u2()
		descIndex := r.u2()
		if r.err != nil {
			break
		}
		fieldName, err := p.utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		// Compilers before Java 5 cache class literals in a static
		// class$ field filled by Class.forName("...").
		if strings.HasPrefix(fieldName, "class$") {
			crawl = true
		}
		p.descriptors = append(p.descriptors, descIndex)
		if err := p.attributes(r, false, rec); err != nil {
			return nil, err
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	if crawl {
		p.forName = p.findMethod("java/lang/Class", "forName", forNameDescriptor)
		p.classDollar = p.findMethod(rec.Name, "class$", forNameDescriptor)
	}

	n = r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		r.u2() // access flags
		r.u2() // name
		p.descriptors = append(p.descriptors, r.u2())
		if err := p.attributes(r, crawl, rec); err != nil {
			return nil, err
		}
	}
	if err := p.attributes(r, false, rec); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}

	if err := p.resolve(); err != nil {
		return nil, err
	}
	rec.Types = p.types.items
	rec.Referred = p.packages.items
	return rec, nil
}

func (p *parser) readPool() error {
	r := p.r
	count := r.u2()
	if r.err != nil {
		return r.err
	}
	p.pool = make([]entry, count)

	for i := 1; i < count; i++ {
		tag := r.u1()
		if r.err != nil {
			return r.err
		}
		e := entry{tag: byte(tag)}
		switch tag {
		case 0:
			// A zero tag ends the pool early; some obfuscators pad with it.
			return nil
		case tagUtf8:
			e.utf8 = string(r.bytes(r.u2()))
		case tagLong, tagDouble:
			// Eight byte constants occupy two slots.
			r.skip(8)
			p.pool[i] = e
			i++
			continue
		case tagClass:
			e.a = r.u2()
			p.classes = append(p.classes, i)
		case tagString:
			e.a = r.u2()
		case tagMethodref, tagNameAndType:
			e.a = r.u2()
			e.b = r.u2()
			if tag == tagNameAndType {
				p.descriptors = append(p.descriptors, e.b)
			}
		case tagMethodType:
			e.a = r.u2()
			p.descriptors = append(p.descriptors, e.a)
		default:
			if tag >= len(skipLength) || skipLength[tag] == 0 {
				r.off--
				r.fail("invalid constant pool tag", nil)
				return r.err
			}
			r.skip(skipLength[tag])
		}
		p.pool[i] = e
	}
	return r.err
}

// at returns the pool entry at index i or fails on an out of range index.
func (p *parser) at(i int) (entry, error) {
	if i <= 0 || i >= len(p.pool) {
		return entry{}, &errors.MalformedClassError{
			Path:   p.r.path,
			Offset: p.r.base + p.r.off,
			Reason: "constant pool index out of range",
		}
	}
	return p.pool[i], nil
}

func (p *parser) utf8(i int) (string, error) {
	e, err := p.at(i)
	if err != nil {
		return "", err
	}
	if e.tag != tagUtf8 {
		return "", p.malformed("constant pool entry is not a UTF8 string")
	}
	return e.utf8, nil
}

func (p *parser) className(i int) (string, error) {
	e, err := p.at(i)
	if err != nil {
		return "", err
	}
	if e.tag != tagClass {
		return "", p.malformed("constant pool entry is not a class")
	}
	return p.utf8(e.a)
}

func (p *parser) malformed(reason string) error {
	return &errors.MalformedClassError{Path: p.r.path, Offset: p.r.base + p.r.off, Reason: reason}
}

// findMethod returns the pool index of the Methodref naming
// owner.name(descriptor), or -1.
func (p *parser) findMethod(owner, name, descriptor string) int {
	str := func(i int) string {
		if i <= 0 || i >= len(p.pool) || p.pool[i].tag != tagUtf8 {
			return ""
		}
		return p.pool[i].utf8
	}
	for i, e := range p.pool {
		if e.tag != tagMethodref || e.a <= 0 || e.a >= len(p.pool) || e.b <= 0 || e.b >= len(p.pool) {
			continue
		}
		class := p.pool[e.a]
		nat := p.pool[e.b]
		if class.tag != tagClass || nat.tag != tagNameAndType {
			continue
		}
		if str(class.a) == owner && str(nat.a) == name && str(nat.b) == descriptor {
			return i
		}
	}
	return -1
}

func (p *parser) attributes(r *reader, crawl bool, rec *Record) error {
	n := r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		if err := p.attribute(r, crawl, rec); err != nil {
			return err
		}
	}
	return r.err
}

func (p *parser) attribute(r *reader, crawl bool, rec *Record) error {
	name, err := p.utf8(r.u2())
	if r.err != nil {
		return r.err
	}
	if err != nil {
		return err
	}
	length := r.u4()
	if length > maxAttributeLength {
		r.off -= 4
		r.fail("attribute larger than 2GB", nil)
		return r.err
	}
	body := r.sub(int(length))
	if r.err != nil {
		return r.err
	}

	switch {
	case name == "RuntimeVisibleAnnotations":
		p.annotations(body)
	case name == "RuntimeVisibleParameterAnnotations":
		params := body.u1()
		for i := 0; i < params && body.err == nil; i++ {
			p.annotations(body)
		}
	case name == "SourceFile":
		if rec.SourceFile, err = p.utf8(body.u2()); err != nil && body.err == nil {
			return err
		}
	case name == "Code" && crawl:
		return p.code(body, rec)
	}
	return body.err
}

func (p *parser) annotations(r *reader) {
	n := r.u2()
	for i := 0; i < n && r.err == nil; i++ {
		p.annotation(r)
	}
}

func (p *parser) annotation(r *reader) {
	p.descriptors = append(p.descriptors, r.u2())
	pairs := r.u2()
	for i := 0; i < pairs && r.err == nil; i++ {
		r.u2() // element name
		p.elementValue(r)
	}
}

func (p *parser) elementValue(r *reader) {
	tag := r.u1()
	if r.err != nil {
		return
	}
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		r.u2()
	case 'e':
		p.descriptors = append(p.descriptors, r.u2())
		r.u2() // constant name
	case 'c':
		p.descriptors = append(p.descriptors, r.u2())
	case '@':
		p.annotation(r)
	case '[':
		n := r.u2()
		for i := 0; i < n && r.err == nil; i++ {
			p.elementValue(r)
		}
	default:
		r.off--
		r.fail("invalid annotation element value tag "+string(rune(tag)), nil)
	}
}

// code reads a Code attribute and scans its bytecode.
func (p *parser) code(r *reader, rec *Record) error {
	r.u2() // max stack
	r.u2() // max locals
	length := r.u4()
	if length > maxAttributeLength {
		r.fail("code larger than 2GB", nil)
		return r.err
	}
	start := r.base + r.off
	code := r.bytes(int(length))
	if r.err != nil {
		return r.err
	}
	if err := p.crawl(code, start); err != nil {
		return err
	}
	r.skip(r.u2() * 8) // exception table
	if r.err != nil {
		return r.err
	}
	return p.attributes(r, false, rec)
}

// crawl walks bytecode looking for a string constant loaded right before
// a call to Class.forName or class$. Those strings name classes the
// constant pool does not otherwise reference.
func (p *parser) crawl(code []byte, base int) error {
	last := -1
	truncated := func(at int) error {
		return &errors.MalformedClassError{Path: p.r.path, Offset: base + at, Reason: "truncated bytecode"}
	}
	u2 := func(at int) int { return int(code[at])<<8 | int(code[at+1]) }
	u4 := func(at int) int { return int(int32(uint32(code[at])<<24 | uint32(code[at+1])<<16 | uint32(code[at+2])<<8 | uint32(code[at+3]))) }

	for i := 0; i < len(code); {
		op := int(code[i])
		i++
		switch op {
		case opLdc:
			if i+1 > len(code) {
				return truncated(i)
			}
			last = int(code[i])
			i++
		case opLdcW:
			if i+2 > len(code) {
				return truncated(i)
			}
			last = u2(i)
			i += 2
		case opInvokestatic:
			if i+2 > len(code) {
				return truncated(i)
			}
			ref := u2(i)
			i += 2
			if (ref == p.forName || ref == p.classDollar) && last > 0 && last < len(p.pool) {
				if s := p.pool[last]; s.tag == tagString && s.a > 0 && s.a < len(p.pool) && p.pool[s.a].tag == tagUtf8 {
					p.reference(strings.ReplaceAll(p.pool[s.a].utf8, ".", "/"))
				}
			}
		case opTableswitch:
			for i%4 != 0 {
				i++
			}
			if i+12 > len(code) {
				return truncated(i)
			}
			low, high := u4(i+4), u4(i+8)
			if high < low {
				return &errors.MalformedClassError{Path: p.r.path, Offset: base + i, Reason: "tableswitch high below low"}
			}
			i += 12 + (high-low+1)*4
			last = -1
		case opLookupswitch:
			for i%4 != 0 {
				i++
			}
			if i+8 > len(code) {
				return truncated(i)
			}
			pairs := u4(i + 4)
			if pairs < 0 {
				return &errors.MalformedClassError{Path: p.r.path, Offset: base + i, Reason: "negative lookupswitch pair count"}
			}
			i += 8 + pairs*8
			last = -1
		case opWide:
			if i+1 > len(code) {
				return truncated(i)
			}
			if int(code[i]) == opIinc {
				i += 5
			} else {
				i += 3
			}
			last = -1
		default:
			i += operandLength[op]
			last = -1
		}
		if i > len(code) {
			return truncated(len(code))
		}
	}
	return nil
}

// resolve turns the collected class and descriptor indices into
// references.
func (p *parser) resolve() error {
	for _, i := range p.classes {
		name, err := p.utf8(p.pool[i].a)
		if err != nil {
			return err
		}
		p.reference(normalize(name))
	}
	for _, i := range p.descriptors {
		desc, err := p.utf8(i)
		if err != nil {
			return err
		}
		for _, name := range ReferencesOf(desc) {
			p.reference(name)
		}
	}
	return nil
}

// reference records an internal class name and its package.
func (p *parser) reference(internalName string) {
	if internalName == "" || isCore(internalName) {
		return
	}
	p.types.add(internalName)
	p.packages.add(PackageOf(internalName))
}

// orderedSet keeps strings in insertion order without duplicates.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
