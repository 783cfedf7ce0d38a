package cachedir

import (
	"github.com/jmgilman/go/errors"
)

// CodeDirectoryAccess indicates the cache directory could not be read.
const CodeDirectoryAccess errors.ErrorCode = "DIRECTORY_ACCESS_FAILED"

func wrapDirectoryError(err error, message, dir string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, CodeDirectoryAccess, message, map[string]interface{}{
		"dir": dir,
	})
}
