package domain

// FieldType enumerates the kinds of index fields a schema can declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeDate     FieldType = "date"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeBoolean  FieldType = "boolean"
)

// FieldTypes lists every declared field type in display order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeDate,
	FieldTypeNumber,
	FieldTypeDropdown,
	FieldTypeBoolean,
}

// Valid reports whether t is a declared field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeDate, FieldTypeNumber, FieldTypeDropdown, FieldTypeBoolean:
		return true
	}
	return false
}

// FieldRole describes how a field participates in document organization.
type FieldRole string

const (
	RoleFolder   FieldRole = "folder"   // contributes a folder path segment
	RoleFilename FieldRole = "filename" // contributes to the filename
	RoleMetadata FieldRole = "metadata" // stored as PDF metadata only
)

// Valid reports whether r is a declared field role.
func (r FieldRole) Valid() bool {
	switch r {
	case RoleFolder, RoleFilename, RoleMetadata:
		return true
	}
	return false
}

// ConflictType classifies validation and naming conflicts.
type ConflictType string

const (
	ConflictDuplicateFilename ConflictType = "duplicate_filename"
	ConflictInvalidPath       ConflictType = "invalid_path"
	ConflictMissingRequired   ConflictType = "missing_required_field"
	ConflictInvalidFieldValue ConflictType = "invalid_field_value"
	ConflictPathTooLong       ConflictType = "path_too_long"
	ConflictReservedName      ConflictType = "reserved_name"
	ConflictInvalidCharacters ConflictType = "invalid_characters"
	ConflictDuplicatePage     ConflictType = "duplicate_page_assignment"
)

// ConflictResolution is the strategy applied when an output file already exists.
type ConflictResolution string

const (
	ResolveAutoRename    ConflictResolution = "auto_rename"
	ResolvePromptUser    ConflictResolution = "prompt_user"
	ResolveSkipDuplicate ConflictResolution = "skip_duplicate"
	ResolveOverwrite     ConflictResolution = "overwrite"
)

// Valid reports whether r is a declared resolution strategy.
func (r ConflictResolution) Valid() bool {
	switch r {
	case ResolveAutoRename, ResolvePromptUser, ResolveSkipDuplicate, ResolveOverwrite:
		return true
	}
	return false
}

// ProcessingState tracks the lifecycle of a batch processing run.
type ProcessingState string

const (
	StateIdle       ProcessingState = "idle"
	StatePreparing  ProcessingState = "preparing"
	StateProcessing ProcessingState = "processing"
	StateCompleting ProcessingState = "completing"
	StateCompleted  ProcessingState = "completed"
	StateError      ProcessingState = "error"
	StateCancelled  ProcessingState = "cancelled"
)

// Active reports whether the state represents an in-flight run.
func (s ProcessingState) Active() bool {
	return s == StatePreparing || s == StateProcessing || s == StateCompleting
}

// Finished reports whether the state is terminal.
func (s ProcessingState) Finished() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}

// ValidationSeverity ranks validation messages.
type ValidationSeverity string

const (
	SeverityInfo     ValidationSeverity = "info"
	SeverityWarning  ValidationSeverity = "warning"
	SeverityError    ValidationSeverity = "error"
	SeverityCritical ValidationSeverity = "critical"
)

// BlocksProcessing reports whether a message of this severity prevents export.
func (s ValidationSeverity) BlocksProcessing() bool {
	return s == SeverityError || s == SeverityCritical
}

// PDFQuality selects the output compression level for exported documents.
type PDFQuality string

const (
	QualityLow      PDFQuality = "low"
	QualityMedium   PDFQuality = "medium"
	QualityHigh     PDFQuality = "high"
	QualityOriginal PDFQuality = "original"
)

// Valid reports whether q is a known quality level.
func (q PDFQuality) Valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh, QualityOriginal:
		return true
	}
	return false
}

// Compress reports whether exported documents get an optimization pass.
// High and original keep the merged output untouched.
func (q PDFQuality) Compress() bool {
	return q == QualityLow || q == QualityMedium
}
