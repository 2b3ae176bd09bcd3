package reconcile

import "errors"

// Error taxonomy for the import pipeline.
//
// Preview-time errors are all-or-nothing: a malformed file rejects the whole
// upload and leaves no session behind. Confirm-time errors are per-mapping:
// AssetNotFound and StorageWriteFailed are recorded in that mapping's outcome
// and never abort the batch.
var (
	// ErrMalformedFile - the uploaded spreadsheet is missing required columns
	// or cannot be read at all
	ErrMalformedFile = errors.New("malformed holdings file")

	// ErrSessionNotFound - the session id is unknown or already consumed
	ErrSessionNotFound = errors.New("import session not found")

	// ErrSessionExpired - the session outlived its TTL before being confirmed
	ErrSessionExpired = errors.New("import session expired")

	// ErrAssetNotFound - a confirmed asset id is no longer in the catalog
	ErrAssetNotFound = errors.New("asset not found in catalog")

	// ErrStorageWriteFailed - the holdings store rejected a snapshot write
	ErrStorageWriteFailed = errors.New("holdings write failed")
)
