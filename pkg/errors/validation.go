package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches topology, building block and format identifiers.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName validates an identifier such as a topology name or format id.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "name too long (max 128 characters)")
	}
	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid name: %q", name)
	}
	return nil
}

// ValidateFilename validates an uploaded building block filename.
// It must be a simple basename with an extension and no path components.
func ValidateFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid control characters")
		}
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidPath, "filename cannot be a hidden file")
	}

	if !strings.Contains(filename, ".") {
		return New(ErrCodeInvalidPath, "filename needs an extension to select a format")
	}

	return nil
}

// ValidateLatticeSize checks that every repetition count of a periodic
// topology is positive.
func ValidateLatticeSize(size [3]int) error {
	for i, n := range size {
		if n < 1 {
			return New(ErrCodeInvalidInput, "lattice size must be positive, got %d on axis %d", n, i)
		}
	}
	return nil
}

// ValidateEdgeAlignment checks that an edge alignment is +1 or -1.
func ValidateEdgeAlignment(edgeID, alignment int) error {
	if alignment != 1 && alignment != -1 {
		return New(ErrCodeInvalidInput, "edge alignment must be 1 or -1, got %d", alignment).
			WithDetail("edge", edgeID)
	}
	return nil
}
