package manifest

import (
	"github.com/jmgilman/go/errors"
)

// Error codes for manifest persistence failures.
const (
	// CodeReadFailed indicates the persisted manifest could not be read or parsed.
	CodeReadFailed errors.ErrorCode = "MANIFEST_READ_FAILED"

	// CodeWriteFailed indicates the manifest could not be written.
	CodeWriteFailed errors.ErrorCode = "MANIFEST_WRITE_FAILED"
)

// wrapReadError wraps an error with CodeReadFailed and the manifest path.
func wrapReadError(err error, message, path string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, CodeReadFailed, message, map[string]interface{}{
		"path": path,
	})
}

// wrapWriteError wraps an error with CodeWriteFailed and the manifest path.
func wrapWriteError(err error, message, path string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, CodeWriteFailed, message, map[string]interface{}{
		"path": path,
	})
}
