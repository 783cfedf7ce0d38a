package engine

import (
	"github.com/jmgilman/go/errors"

	"github.com/Nikhil-z/farnsworth/remote"
)

// wrapAssetError labels a local failure while storing a downloaded asset as a
// per-asset download failure. Errors that already carry that code are
// returned unchanged.
func wrapAssetError(err error, message, url, path string) error {
	if err == nil {
		return nil
	}
	if errors.GetCode(err) == remote.CodeAssetDownload {
		return err
	}
	return errors.WrapWithContext(err, remote.CodeAssetDownload, message, map[string]interface{}{
		"url":  url,
		"path": path,
	})
}
