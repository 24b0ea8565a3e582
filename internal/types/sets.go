package types

// StringSet is an insertion-ordered set of strings. Cluster attribute
// aggregation runs through it so that output order depends only on the order
// values were first seen, never on map iteration.
type StringSet struct {
	seen  map[string]struct{}
	items []string
}

// NewStringSet returns an empty set.
func NewStringSet() *StringSet {
	return &StringSet{seen: make(map[string]struct{})}
}

// Add inserts v unless already present. It reports whether v was new.
// Empty strings are ignored: absent attributes never become cluster values.
func (s *StringSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// AddAll inserts each value in order.
func (s *StringSet) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

// Has reports whether v is in the set.
func (s *StringSet) Has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// Values returns the members in insertion order. The returned slice is a
// copy; mutating it does not affect the set.
func (s *StringSet) Values() []string {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s *StringSet) Len() int {
	return len(s.items)
}

// IntSet is an insertion-ordered set of ints, used for year aggregation.
type IntSet struct {
	seen  map[int]struct{}
	items []int
}

// NewIntSet returns an empty set.
func NewIntSet() *IntSet {
	return &IntSet{seen: make(map[int]struct{})}
}

// Add inserts v unless already present. Zero values are ignored, matching
// the string-set treatment of absent attributes.
func (s *IntSet) Add(v int) bool {
	if v == 0 {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// AddAll inserts each value in order.
func (s *IntSet) AddAll(values []int) {
	for _, v := range values {
		s.Add(v)
	}
}

// Values returns the members in insertion order as a copy.
func (s *IntSet) Values() []int {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]int, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s *IntSet) Len() int {
	return len(s.items)
}
