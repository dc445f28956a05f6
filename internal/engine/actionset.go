package engine

import "sort"

// ActionSet is an immutable set of action numbers. With and Without return a
// new set and leave the receiver untouched. The zero value is empty.
type ActionSet struct {
	m map[int]struct{}
}

func NewActionSet(actions ...int) ActionSet {
	m := make(map[int]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return ActionSet{m: m}
}

func (s ActionSet) Has(action int) bool {
	_, ok := s.m[action]
	return ok
}

func (s ActionSet) Len() int { return len(s.m) }

func (s ActionSet) With(action int) ActionSet {
	if s.Has(action) {
		return s
	}
	m := make(map[int]struct{}, len(s.m)+1)
	for a := range s.m {
		m[a] = struct{}{}
	}
	m[action] = struct{}{}
	return ActionSet{m: m}
}

func (s ActionSet) Without(action int) ActionSet {
	if !s.Has(action) {
		return s
	}
	m := make(map[int]struct{}, len(s.m))
	for a := range s.m {
		if a != action {
			m[a] = struct{}{}
		}
	}
	return ActionSet{m: m}
}

// Sorted returns the members in ascending order.
func (s ActionSet) Sorted() []int {
	out := make([]int, 0, len(s.m))
	for a := range s.m {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}
