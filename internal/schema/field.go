package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scandex/internal/domain"
)

// acceptedDateFormats are the layouts a DATE field value may use.
var acceptedDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
}

// booleanTokens are the accepted BOOLEAN field values, compared case-insensitively.
var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "1": {}, "0": {}, "yes": {}, "no": {},
}

// ValidationRules holds the optional per-field constraints. Pointer fields
// distinguish "not set" from a zero value.
type ValidationRules struct {
	MinLength          *int     `json:"min_length,omitempty"`
	MaxLength          *int     `json:"max_length,omitempty"`
	Pattern            string   `json:"pattern,omitempty"`
	PatternDescription string   `json:"pattern_description,omitempty"`
	MinValue           *float64 `json:"min_value,omitempty"`
	MaxValue           *float64 `json:"max_value,omitempty"`
	IntegerOnly        bool     `json:"integer_only,omitempty"`
	MinDate            string   `json:"min_date,omitempty"`
	MaxDate            string   `json:"max_date,omitempty"`
}

// IndexField is a single input field within a schema.
type IndexField struct {
	Name            string           `json:"name"`
	Type            domain.FieldType `json:"field_type"`
	Role            domain.FieldRole `json:"role"`
	Required        bool             `json:"required"`
	DefaultValue    string           `json:"default_value,omitempty"`
	Rules           ValidationRules  `json:"validation_rules"`
	DisplayOrder    int              `json:"display_order"`
	DropdownOptions []string         `json:"dropdown_options,omitempty"`
	Description     string           `json:"description,omitempty"`
	Placeholder     string           `json:"placeholder_text,omitempty"`
}

// NewField builds a field with the given identity. Rules and options are set
// on the returned struct directly or through the SchemaBuilder.
func NewField(name string, ftype domain.FieldType, role domain.FieldRole, required bool) *IndexField {
	f := &IndexField{Name: name, Type: ftype, Role: role, Required: required}
	if ftype == domain.FieldTypeDropdown && f.DropdownOptions == nil {
		f.DropdownOptions = []string{}
	}
	return f
}

// ValidateValue checks a raw value against the field's type and rules.
// A nil return means the value is acceptable. Empty values pass unless the
// field is required.
func (f *IndexField) ValidateValue(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if f.Required {
			return fmt.Errorf("field %q is required", f.Name)
		}
		return nil
	}

	switch f.Type {
	case domain.FieldTypeText:
		return f.validateText(trimmed)
	case domain.FieldTypeDate:
		return f.validateDate(trimmed)
	case domain.FieldTypeNumber:
		return f.validateNumber(trimmed)
	case domain.FieldTypeDropdown:
		return f.validateDropdown(trimmed)
	case domain.FieldTypeBoolean:
		return f.validateBoolean(trimmed)
	default:
		return fmt.Errorf("field %q: unknown field type %q", f.Name, f.Type)
	}
}

func (f *IndexField) validateText(value string) error {
	if f.Rules.MinLength != nil && len(value) < *f.Rules.MinLength {
		return fmt.Errorf("field %q: text must be at least %d characters", f.Name, *f.Rules.MinLength)
	}
	if f.Rules.MaxLength != nil && len(value) > *f.Rules.MaxLength {
		return fmt.Errorf("field %q: text cannot exceed %d characters", f.Name, *f.Rules.MaxLength)
	}
	if f.Rules.Pattern != "" {
		re, err := regexp.Compile(f.Rules.Pattern)
		if err != nil {
			return fmt.Errorf("field %q: invalid pattern rule: %w", f.Name, err)
		}
		if !re.MatchString(value) {
			desc := f.Rules.PatternDescription
			if desc == "" {
				desc = "required format"
			}
			return fmt.Errorf("field %q: text must match %s", f.Name, desc)
		}
	}
	if f.Role == domain.RoleFolder || f.Role == domain.RoleFilename {
		if domain.HasInvalidChars(value) {
			return fmt.Errorf("field %q: contains invalid characters for file or folder names", f.Name)
		}
		if domain.IsReservedName(value) {
			return fmt.Errorf("field %q: cannot use reserved system names", f.Name)
		}
	}
	return nil
}

func (f *IndexField) validateDate(value string) error {
	parsed, err := ParseDate(value)
	if err != nil {
		return fmt.Errorf("field %q: invalid date format, use YYYY-MM-DD, MM/DD/YYYY, or similar", f.Name)
	}
	if f.Rules.MinDate != "" {
		if min, err := ParseDate(f.Rules.MinDate); err == nil && parsed.Before(min) {
			return fmt.Errorf("field %q: date must be on or after %s", f.Name, f.Rules.MinDate)
		}
	}
	if f.Rules.MaxDate != "" {
		if max, err := ParseDate(f.Rules.MaxDate); err == nil && parsed.After(max) {
			return fmt.Errorf("field %q: date must be on or before %s", f.Name, f.Rules.MaxDate)
		}
	}
	return nil
}

func (f *IndexField) validateNumber(value string) error {
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("field %q: must be a valid number", f.Name)
	}
	if f.Rules.IntegerOnly {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("field %q: must be a whole number", f.Name)
		}
	}
	if f.Rules.MinValue != nil && num < *f.Rules.MinValue {
		return fmt.Errorf("field %q: number must be at least %v", f.Name, *f.Rules.MinValue)
	}
	if f.Rules.MaxValue != nil && num > *f.Rules.MaxValue {
		return fmt.Errorf("field %q: number cannot exceed %v", f.Name, *f.Rules.MaxValue)
	}
	return nil
}

func (f *IndexField) validateDropdown(value string) error {
	if len(f.DropdownOptions) == 0 {
		return fmt.Errorf("field %q: no dropdown options defined", f.Name)
	}
	for _, opt := range f.DropdownOptions {
		if value == opt {
			return nil
		}
	}
	return fmt.Errorf("field %q: must select one of: %s", f.Name, strings.Join(f.DropdownOptions, ", "))
}

func (f *IndexField) validateBoolean(value string) error {
	if _, ok := booleanTokens[strings.ToLower(value)]; !ok {
		return fmt.Errorf("field %q: must be yes/no, true/false, or 1/0", f.Name)
	}
	return nil
}

// Default returns the field's default value, falling back to a
// type-appropriate zero when none is configured.
func (f *IndexField) Default() string {
	if f.DefaultValue != "" {
		return f.DefaultValue
	}
	switch f.Type {
	case domain.FieldTypeBoolean:
		return "false"
	case domain.FieldTypeNumber:
		return "0"
	case domain.FieldTypeDate:
		return time.Now().Format("2006-01-02")
	default:
		return ""
	}
}

// Clone returns an independent copy of the field.
func (f *IndexField) Clone() *IndexField {
	c := *f
	if f.DropdownOptions != nil {
		c.DropdownOptions = append([]string(nil), f.DropdownOptions...)
	}
	if f.Rules.MinLength != nil {
		v := *f.Rules.MinLength
		c.Rules.MinLength = &v
	}
	if f.Rules.MaxLength != nil {
		v := *f.Rules.MaxLength
		c.Rules.MaxLength = &v
	}
	if f.Rules.MinValue != nil {
		v := *f.Rules.MinValue
		c.Rules.MinValue = &v
	}
	if f.Rules.MaxValue != nil {
		v := *f.Rules.MaxValue
		c.Rules.MaxValue = &v
	}
	return &c
}

// ParseDate parses a date value against the accepted layouts.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range acceptedDateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
