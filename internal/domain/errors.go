package domain

import "errors"

var (
	ErrNotFound           = errors.New("resource not found")
	ErrSchemaNotFound     = errors.New("schema not found")
	ErrBatchNotFound      = errors.New("batch not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrFileNotFound       = errors.New("scanned file not found")
	ErrInvalidSchema      = errors.New("schema failed validation")
	ErrDuplicateField     = errors.New("field name already exists in schema")
	ErrDuplicateSchema    = errors.New("schema name already exists")
	ErrPageConflict       = errors.New("pages already assigned to another assignment")
	ErrFileConflict       = errors.New("output file already exists")
	ErrInvalidPageNumber  = errors.New("page number must be 1 or greater")
	ErrBatchInvalid       = errors.New("batch failed validation")
	ErrProcessingActive   = errors.New("batch processing already in progress")
	ErrNotProcessing      = errors.New("no processing run is active")
	ErrUnsupportedFile    = errors.New("unsupported file type")
)
