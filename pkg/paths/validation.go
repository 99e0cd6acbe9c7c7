package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/nixroots/pkg/errors"
)

// ValidateSegment ensures value can be used as a single path segment.
// kind names the value in error messages ("root name", "project id").
// A segment must:
// - Not be empty
// - Not contain path separators or null bytes
// - Not be a reserved name (. or ..)
func ValidateSegment(kind, value string) error {
	if value == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s cannot be empty", kind)
	}

	if strings.IndexFunc(value, isSeparator) >= 0 {
		return errors.Newf(errors.ErrInvalidInput,
			"%s %q cannot contain path separators", kind, value).
			WithDetail(kind, value)
	}

	if strings.Contains(value, "\x00") {
		return errors.Newf(errors.ErrInvalidInput, "%s contains null bytes", kind)
	}

	if value == "." || value == ".." {
		return errors.Newf(errors.ErrInvalidInput, "%s cannot be '.' or '..'", kind)
	}

	return nil
}

// ValidateAbsolute ensures path is absolute. The path is not checked for
// existence.
func ValidateAbsolute(kind, path string) error {
	if path == "" {
		return errors.Newf(errors.ErrInvalidInput, "%s cannot be empty", kind)
	}

	if !filepath.IsAbs(path) {
		return errors.Newf(errors.ErrInvalidInput,
			"%s %q must be an absolute path", kind, path).
			WithDetail(kind, path)
	}

	return nil
}

// isSeparator reports whether r separates path elements on this platform.
// A backslash is an ordinary character on Unix.
func isSeparator(r rune) bool {
	return r < 0x80 && os.IsPathSeparator(uint8(r))
}
