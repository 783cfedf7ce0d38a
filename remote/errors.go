package remote

import (
	"github.com/jmgilman/go/errors"
)

// Error codes for remote operations.
const (
	// CodeRemoteFetch indicates a network failure or non-200 response.
	CodeRemoteFetch errors.ErrorCode = "REMOTE_FETCH_FAILED"

	// CodeCatalogParse indicates the catalog body was not valid JSON.
	CodeCatalogParse errors.ErrorCode = "CATALOG_PARSE_FAILED"

	// CodeAssetDownload indicates a single asset could not be downloaded.
	CodeAssetDownload errors.ErrorCode = "ASSET_DOWNLOAD_FAILED"
)

func wrapFetchError(err error, message, url string, status int) errors.PlatformError {
	if err == nil {
		return nil
	}
	ctx := map[string]interface{}{"url": url}
	if status != 0 {
		ctx["status"] = status
	}
	return errors.WithClassification(
		errors.WrapWithContext(err, CodeRemoteFetch, message, ctx),
		errors.ClassificationRetryable,
	)
}

func wrapParseError(err error, message, url string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WrapWithContext(err, CodeCatalogParse, message, map[string]interface{}{
		"url": url,
	})
}

func wrapDownloadError(err error, message, url string) errors.PlatformError {
	if err == nil {
		return nil
	}
	return errors.WithClassification(
		errors.WrapWithContext(err, CodeAssetDownload, message, map[string]interface{}{"url": url}),
		errors.ClassificationRetryable,
	)
}

// asDownloadError re-labels a fetch failure as a per-asset download failure,
// keeping the original error in the chain.
func asDownloadError(err error, url string) errors.PlatformError {
	return wrapDownloadError(err, "failed to download asset", url)
}
