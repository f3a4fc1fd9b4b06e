package report

import "errors"

var (
	ErrInvalidFileKind      = errors.New("report: invalid transaction file kind")
	ErrInvalidFileName      = errors.New("report: file name is required")
	ErrFileNotFound         = errors.New("report: transaction file not found")
	ErrFileAlreadyUploaded  = errors.New("report: transaction file already uploaded")
	ErrUnknownReportFormat  = errors.New("report: unknown report line format")
	ErrInvalidPeriod        = errors.New("report: invalid period")
	ErrExportNotSupported   = errors.New("report: marketplace has no DATEV export")
	ErrMissingAccountNumber = errors.New("report: account number not configured")
)
