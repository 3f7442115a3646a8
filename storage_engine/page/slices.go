package page

// insert places elem at index i, shifting the tail right.
func insert[T any](slice []T, i int, elem T) []T {
	slice = append(slice, elem)
	copy(slice[i+1:], slice[i:])
	slice[i] = elem
	return slice
}

// remove drops the element at index i.
func remove[T any](slice []T, i int) []T {
	return append(slice[:i], slice[i+1:]...)
}
