package sandbox

import "errors"

// Sentinel errors for the file-access core. Each is terminal for the single
// call that raised it; there are no internal retries. Callers match with
// errors.Is.
var (
	// ErrPathEscape means the resolved path would leave the repository root.
	ErrPathEscape = errors.New("path escapes repository root")

	// ErrAccessDenied means the path matched the deny policy.
	ErrAccessDenied = errors.New("access denied by policy")

	// ErrNotFound means the target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTooLarge means the file exceeds the byte-size cap.
	ErrTooLarge = errors.New("file exceeds size limit")

	// ErrInvalidPattern means the search regular expression or glob could
	// not be compiled. Raised before any file I/O.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidArgument means an input was out of range. Range validation
	// belongs to the tool layer; the core raises this only for inputs it
	// cannot interpret at all.
	ErrInvalidArgument = errors.New("invalid argument")
)
