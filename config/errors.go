package config

import (
	"github.com/jmgilman/go/errors"
)

func wrapConfigError(err error, message, path string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeInvalidConfig, message, map[string]interface{}{
		"path": path,
	})
}

// wrapConfigErrorWithDetails also records the CUE error details, which list
// every offending field.
func wrapConfigErrorWithDetails(err error, message, path string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, errors.CodeInvalidConfig, message, map[string]interface{}{
		"path":    path,
		"details": details(err),
	})
}
