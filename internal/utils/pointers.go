// Package utils holds small helpers for optional (pointer) fields.
package utils

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// NonEmpty is Ptr for optional strings where "" means absent.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
