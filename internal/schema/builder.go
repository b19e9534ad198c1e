package schema

import (
	"fmt"
	"strings"

	"scandex/internal/domain"
)

// FieldOption configures an individual field added through the builder.
type FieldOption func(*IndexField)

// WithDefault sets the field's default value.
func WithDefault(value string) FieldOption {
	return func(f *IndexField) { f.DefaultValue = value }
}

// WithDescription sets the field's description text.
func WithDescription(desc string) FieldOption {
	return func(f *IndexField) { f.Description = desc }
}

// WithPlaceholder sets the field's input placeholder text.
func WithPlaceholder(text string) FieldOption {
	return func(f *IndexField) { f.Placeholder = text }
}

// WithLengthRange constrains a text field's value length.
func WithLengthRange(min, max int) FieldOption {
	return func(f *IndexField) {
		f.Rules.MinLength = &min
		f.Rules.MaxLength = &max
	}
}

// WithPattern constrains a text field to a regular expression.
func WithPattern(pattern, description string) FieldOption {
	return func(f *IndexField) {
		f.Rules.Pattern = pattern
		f.Rules.PatternDescription = description
	}
}

// WithNumberRange constrains a number field's value.
func WithNumberRange(min, max float64) FieldOption {
	return func(f *IndexField) {
		f.Rules.MinValue = &min
		f.Rules.MaxValue = &max
	}
}

// WithIntegerOnly restricts a number field to whole numbers.
func WithIntegerOnly() FieldOption {
	return func(f *IndexField) { f.Rules.IntegerOnly = true }
}

// WithDateRange constrains a date field to an inclusive range. Either bound
// may be empty.
func WithDateRange(min, max string) FieldOption {
	return func(f *IndexField) {
		f.Rules.MinDate = min
		f.Rules.MaxDate = max
	}
}

// SchemaBuilder assembles a schema through a fluent interface. The first
// error encountered is retained and reported by Build.
type SchemaBuilder struct {
	schema *IndexSchema
	err    error
}

// NewBuilder starts a builder for a schema with the given name.
func NewBuilder(name, description string) *SchemaBuilder {
	return &SchemaBuilder{schema: NewSchema(name, description)}
}

func (b *SchemaBuilder) add(field *IndexField, opts []FieldOption) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	for _, opt := range opts {
		opt(field)
	}
	b.err = b.schema.AddField(field)
	return b
}

// Text adds a text field.
func (b *SchemaBuilder) Text(name string, role domain.FieldRole, required bool, opts ...FieldOption) *SchemaBuilder {
	return b.add(NewField(name, domain.FieldTypeText, role, required), opts)
}

// Date adds a date field.
func (b *SchemaBuilder) Date(name string, role domain.FieldRole, required bool, opts ...FieldOption) *SchemaBuilder {
	return b.add(NewField(name, domain.FieldTypeDate, role, required), opts)
}

// Number adds a number field.
func (b *SchemaBuilder) Number(name string, role domain.FieldRole, required bool, opts ...FieldOption) *SchemaBuilder {
	return b.add(NewField(name, domain.FieldTypeNumber, role, required), opts)
}

// Dropdown adds a dropdown field with the given options.
func (b *SchemaBuilder) Dropdown(name string, options []string, role domain.FieldRole, required bool, opts ...FieldOption) *SchemaBuilder {
	field := NewField(name, domain.FieldTypeDropdown, role, required)
	field.DropdownOptions = options
	return b.add(field, opts)
}

// Boolean adds a boolean field.
func (b *SchemaBuilder) Boolean(name string, role domain.FieldRole, required bool, opts ...FieldOption) *SchemaBuilder {
	return b.add(NewField(name, domain.FieldTypeBoolean, role, required), opts)
}

// FilenameTemplate sets the filename generation template.
func (b *SchemaBuilder) FilenameTemplate(template string) *SchemaBuilder {
	b.schema.FilenameTemplate = template
	return b
}

// FolderSeparator sets the folder path separator.
func (b *SchemaBuilder) FolderSeparator(sep string) *SchemaBuilder {
	b.schema.FolderSeparator = sep
	return b
}

// Metadata sets descriptive schema metadata.
func (b *SchemaBuilder) Metadata(author, category string, tags ...string) *SchemaBuilder {
	b.schema.Author = author
	b.schema.Category = category
	if len(tags) > 0 {
		b.schema.Tags = tags
	}
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*IndexSchema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if errs := b.schema.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("schema validation failed: %s: %w", strings.Join(errs, "; "), domain.ErrInvalidSchema)
	}
	return b.schema, nil
}

// MustBuild is Build for statically-defined schemas that cannot fail.
func (b *SchemaBuilder) MustBuild() *IndexSchema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
