package utils

// Ptr returns a pointer to v, for optional request fields that distinguish
// "unset" from a zero value.
func Ptr[T any](v T) *T {
	return &v
}
