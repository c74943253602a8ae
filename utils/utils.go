// Package utils provides utility functions for the application.
package utils

// ToPtr returns a pointer to v. Mostly used to populate the nullable
// bool and string columns on the GORM models.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reports whether a nullable bool flag is present and set.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
