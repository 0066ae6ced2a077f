package instruction

// Set is an insertion-ordered collection of instructions keyed by
// [Instruction.Key]. The analyzer uses it to track instructions that have
// not matched anything yet.
type Set struct {
	order []string
	items map[string]*Instruction
}

// NewSet creates a set holding the given instructions.
func NewSet(ins ...*Instruction) *Set {
	s := &Set{items: make(map[string]*Instruction)}
	for _, in := range ins {
		s.Add(in)
	}
	return s
}

// Add inserts in unless an equal instruction is already present.
func (s *Set) Add(in *Instruction) {
	if _, ok := s.items[in.Key()]; ok {
		return
	}
	s.items[in.Key()] = in
	s.order = append(s.order, in.Key())
}

// Remove deletes the instruction equal to in.
func (s *Set) Remove(in *Instruction) {
	if _, ok := s.items[in.Key()]; !ok {
		return
	}
	delete(s.items, in.Key())
	for i, k := range s.order {
		if k == in.Key() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether an instruction equal to in is present.
func (s *Set) Contains(in *Instruction) bool {
	_, ok := s.items[in.Key()]
	return ok
}

// Len returns the number of instructions.
func (s *Set) Len() int { return len(s.order) }

// List returns the instructions in insertion order.
func (s *Set) List() []*Instruction {
	out := make([]*Instruction, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}
