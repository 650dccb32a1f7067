package utils

import "sort"

type StringSet map[string]struct{}

func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func NewStringSetSized(size int) StringSet {
	return make(StringSet, size)
}

func NewStringSetFromSlice(items []string) StringSet {
	return NewStringSet(items...)
}

func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

func (s StringSet) Remove(v string) {
	delete(s, v)
}

func (s StringSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// GetSlice returns the members in sorted order so packed output is stable.
func (s StringSet) GetSlice() []string {
	slice := make([]string, 0, len(s))
	for v := range s {
		slice = append(slice, v)
	}
	sort.Strings(slice)
	return slice
}
