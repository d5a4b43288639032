package executor

import "slices"

// moveAfter returns a copy of list with item moved to just after anchor, or
// to the front when anchor is nil. All other items keep their relative
// order. Moving an item after itself leaves the list unchanged. The caller
// guarantees that item and a non-nil anchor are present.
func moveAfter(list []string, item string, anchor *string) []string {
	if anchor != nil && *anchor == item {
		return slices.Clone(list)
	}

	rest := slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == item })
	if anchor == nil {
		return slices.Insert(rest, 0, item)
	}
	at := slices.Index(rest, *anchor)
	return slices.Insert(rest, at+1, item)
}
