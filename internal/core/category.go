package core

import "strings"

// CategorySet is the accepted category taxonomy, supplied by configuration
// rather than hardcoded. An empty set is open: any category text is accepted.
type CategorySet struct {
	names []string
	index map[string]struct{}
}

// NewCategorySet builds a set from the given names, trimming blanks and
// dropping duplicates while preserving input order.
func NewCategorySet(names []string) CategorySet {
	set := CategorySet{index: make(map[string]struct{})}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := set.index[key]; ok {
			continue
		}
		set.index[key] = struct{}{}
		set.names = append(set.names, name)
	}
	return set
}

// Open reports whether the set accepts free text.
func (s CategorySet) Open() bool {
	return len(s.names) == 0
}

// Allows reports whether the given category is acceptable. The empty
// category is always allowed because the field is optional.
func (s CategorySet) Allows(category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || s.Open() {
		return true
	}
	_, ok := s.index[strings.ToLower(category)]
	return ok
}

// Names returns the accepted categories in declaration order.
func (s CategorySet) Names() []string {
	return append([]string(nil), s.names...)
}
