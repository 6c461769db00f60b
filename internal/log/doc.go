// Package log provides slog loggers that keep patient-identifying
// information out of log output.
//
// Chest X-ray datasets are exported from hospital systems and file names,
// DICOM tags or service responses may carry protected health information.
// SecureHandler wraps any slog.Handler and masks attribute values that are
// PHI by key name (patient_id, mrn, accession_number, birth_date and
// similar) or by value shape (DICOM UIDs, DICOM person names), along with
// the usual credentials sent to the detection service.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("image loaded",
//	    "path", "images/train/img001.png",
//	    "patient_id", "P-000123", // logged as ***REDACTED***
//	)
package log
