package reports

import "errors"

var (
	ErrInvalidReportType   = errors.New("invalid report type")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrImageRequired       = errors.New("image is required")
)
