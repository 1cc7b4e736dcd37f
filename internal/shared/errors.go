package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a request failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a uniqueness or state conflict.
	ErrConflict = errors.New("conflict")
)

// UserSafeMessage maps internal errors to a message safe to surface.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Data tidak ditemukan"
	case errors.Is(err, ErrInvalidInput):
		return "Input tidak valid"
	case errors.Is(err, ErrConflict):
		return "Data konflik dengan perubahan lain"
	default:
		return "Terjadi kesalahan internal"
	}
}
