// Package calibration keeps the named pixel-to-micrometre ratios used to
// convert measured lengths into physical units.
//
// A [Calibration] is created from a reference line drawn over a scale bar
// and the bar's true length:
//
//	value = round(referencePixels / trueMicrometres, 3)
//
// The [Registry] holds calibrations in insertion order, keyed by unique
// name, plus at most one active name. Without an active calibration
// [Registry.ActiveRatio] is 1, meaning lengths stay in pixels.
//
// # Persistence
//
// The registry is loaded once from a [store.Store] and every mutation is
// written back immediately under the keys "calibrations" (JSON array of
// {name, value}) and "activeCalibration" (the bare name). A failed write
// is returned as a *StorageError; the in-memory state keeps the change and
// stays authoritative.
//
// # Errors
//
//   - *DuplicateNameError: Add without overwrite on an existing name.
//   - *MalformedImportError: Import input is not an array of valid records.
//     Nothing is changed.
//   - *StorageError: the store failed to read or write.
//   - ErrNotFound: Remove or SetActive on an unknown name.
package calibration
