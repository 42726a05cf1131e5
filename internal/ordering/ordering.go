// Package ordering holds the sequence primitives used to reposition lists and
// cards. Every function leaves its inputs untouched; when a move is not
// applicable the input slice itself is returned so callers can detect the
// no-op with Same.
package ordering

// Identified is implemented by items that MoveWithin can locate by id.
type Identified interface {
	ItemID() string
}

// Reorder returns a new slice with the element at from moved to to. If from
// equals to, or either index is out of range, items is returned as is.
func Reorder[T any](items []T, from, to int) []T {
	if from == to || from < 0 || to < 0 || from >= len(items) || to >= len(items) {
		return items
	}

	next := make([]T, 0, len(items))
	next = append(next, items[:from]...)
	next = append(next, items[from+1:]...)

	moved := items[from]
	next = append(next, moved)
	copy(next[to+1:], next[to:len(next)-1])
	next[to] = moved
	return next
}

// MoveWithin moves the item whose ItemID equals id to toIndex. Items without a
// match are returned as is.
func MoveWithin[T Identified](items []T, id string, toIndex int) []T {
	for i, item := range items {
		if item.ItemID() == id {
			return Reorder(items, i, toIndex)
		}
	}
	return items
}

// MoveBetween removes the element at fromIndex in source and inserts it at
// toIndex in destination. toIndex may equal len(destination) to append. Invalid
// indices return both inputs as they are.
func MoveBetween[T any](source, destination []T, fromIndex, toIndex int) ([]T, []T) {
	if fromIndex < 0 || fromIndex >= len(source) || toIndex < 0 || toIndex > len(destination) {
		return source, destination
	}

	moved := source[fromIndex]

	nextSource := make([]T, 0, len(source)-1)
	nextSource = append(nextSource, source[:fromIndex]...)
	nextSource = append(nextSource, source[fromIndex+1:]...)

	nextDestination := make([]T, 0, len(destination)+1)
	nextDestination = append(nextDestination, destination[:toIndex]...)
	nextDestination = append(nextDestination, moved)
	nextDestination = append(nextDestination, destination[toIndex:]...)

	return nextSource, nextDestination
}

// IndexOf returns the position of the first element equal to value, or -1.
func IndexOf[T comparable](items []T, value T) int {
	for i, item := range items {
		if item == value {
			return i
		}
	}
	return -1
}

// Remove returns a new slice without any element equal to value. When value is
// absent items is returned as is.
func Remove[T comparable](items []T, value T) []T {
	if IndexOf(items, value) == -1 {
		return items
	}
	next := make([]T, 0, len(items)-1)
	for _, item := range items {
		if item != value {
			next = append(next, item)
		}
	}
	return next
}

// Clamp bounds index to [0, n].
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// Same reports whether a and b are the same slice: same length and the same
// backing array start. Empty slices compare by nil-ness only.
func Same[T any](a, b []T) bool {
	if len(a) != len(b) || cap(a) != cap(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}
