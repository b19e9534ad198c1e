package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"scandex/internal/domain"
)

const (
	// DefaultFilenameTemplate names output files by run timestamp plus a
	// per-folder sequence number.
	DefaultFilenameTemplate = "{timestamp}_{sequential}"
	// DefaultFolderSeparator joins folder path segments.
	DefaultFolderSeparator = "/"
)

var templateVarPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// IndexSchema defines the fields and naming rules for a document batch.
// The JSON shape is the persisted schema-file format.
type IndexSchema struct {
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Version          string        `json:"version"`
	Author           string        `json:"author"`
	Category         string        `json:"category"`
	Tags             []string      `json:"tags"`
	FolderSeparator  string        `json:"folder_separator"`
	FilenameTemplate string        `json:"filename_template"`
	CreatedDate      time.Time     `json:"created_date"`
	ModifiedDate     time.Time     `json:"modified_date"`
	Fields           []*IndexField `json:"fields"`
}

// NewSchema creates an empty schema with default naming rules.
func NewSchema(name, description string) *IndexSchema {
	now := time.Now()
	return &IndexSchema{
		Name:             name,
		Description:      description,
		Version:          "1.0",
		Tags:             []string{},
		FolderSeparator:  DefaultFolderSeparator,
		FilenameTemplate: DefaultFilenameTemplate,
		CreatedDate:      now,
		ModifiedDate:     now,
		Fields:           []*IndexField{},
	}
}

// AddField appends a field, assigning a display order if none was set.
// Duplicate names are rejected.
func (s *IndexSchema) AddField(field *IndexField) error {
	for _, f := range s.Fields {
		if f.Name == field.Name {
			return fmt.Errorf("field %q already exists: %w", field.Name, domain.ErrDuplicateField)
		}
	}
	if field.DisplayOrder == 0 {
		field.DisplayOrder = len(s.Fields) + 1
	}
	s.Fields = append(s.Fields, field)
	s.ModifiedDate = time.Now()
	return nil
}

// RemoveField deletes a field by name. Returns false if no field matched.
func (s *IndexSchema) RemoveField(name string) bool {
	for i, f := range s.Fields {
		if f.Name == name {
			s.Fields = append(s.Fields[:i], s.Fields[i+1:]...)
			s.ModifiedDate = time.Now()
			return true
		}
	}
	return false
}

// ReorderFields rearranges fields to match the given name order. The list
// must name every existing field exactly once.
func (s *IndexSchema) ReorderFields(order []string) error {
	if len(order) != len(s.Fields) {
		return fmt.Errorf("field order list does not match existing fields: %w", domain.ErrInvalidSchema)
	}
	byName := make(map[string]*IndexField, len(s.Fields))
	for _, f := range s.Fields {
		byName[f.Name] = f
	}
	reordered := make([]*IndexField, 0, len(order))
	for i, name := range order {
		f, ok := byName[name]
		if !ok {
			return fmt.Errorf("field order list names unknown field %q: %w", name, domain.ErrInvalidSchema)
		}
		f.DisplayOrder = i + 1
		reordered = append(reordered, f)
		delete(byName, name)
	}
	s.Fields = reordered
	s.ModifiedDate = time.Now()
	return nil
}

// FieldByName returns the named field, or nil.
func (s *IndexSchema) FieldByName(name string) *IndexField {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldsByRole returns all fields with the given role, in declaration order.
func (s *IndexSchema) FieldsByRole(role domain.FieldRole) []*IndexField {
	var out []*IndexField
	for _, f := range s.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFields returns all required fields.
func (s *IndexSchema) RequiredFields() []*IndexField {
	var out []*IndexField
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the schema's structural consistency. An empty slice means
// the schema is valid.
func (s *IndexSchema) Validate() []string {
	var errs []string

	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "schema name is required")
	}
	if len(s.Fields) == 0 {
		errs = append(errs, "schema must have at least one field")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, "all fields must have names")
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate field name: %s", f.Name))
		}
		seen[f.Name] = struct{}{}

		if !f.Type.Valid() {
			errs = append(errs, fmt.Sprintf("field %q has unknown type %q", f.Name, f.Type))
		}
		if !f.Role.Valid() {
			errs = append(errs, fmt.Sprintf("field %q has unknown role %q", f.Name, f.Role))
		}
		if f.Type == domain.FieldTypeDropdown && len(f.DropdownOptions) == 0 {
			errs = append(errs, fmt.Sprintf("dropdown field %q must have options", f.Name))
		}
		if f.DefaultValue != "" {
			if err := f.ValidateValue(f.DefaultValue); err != nil {
				errs = append(errs, fmt.Sprintf("default value for %q: %v", f.Name, err))
			}
		}
	}

	if len(s.Fields) > 0 &&
		len(s.FieldsByRole(domain.RoleFolder)) == 0 &&
		len(s.FieldsByRole(domain.RoleFilename)) == 0 {
		errs = append(errs, "schema must have at least one folder or filename field")
	}

	return errs
}

// ValidateAssignmentValues checks a complete value set against every field.
func (s *IndexSchema) ValidateAssignmentValues(values map[string]string) []string {
	var errs []string
	for _, f := range s.Fields {
		if err := f.ValidateValue(values[f.Name]); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// GenerateFolderStructure derives the output folder path from field values.
// Folder-role fields contribute sanitized segments in display order; fields
// with empty values are skipped. Deterministic for identical inputs.
func (s *IndexSchema) GenerateFolderStructure(values map[string]string) string {
	fields := s.sortedByOrder(s.FieldsByRole(domain.RoleFolder))

	var parts []string
	for _, f := range fields {
		value := strings.TrimSpace(values[f.Name])
		if value == "" {
			continue
		}
		if clean := domain.SafeFileName(value); clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, s.FolderSeparator)
}

// FolderComponents splits a folder path generated by this schema back into
// its directory segments, honoring the schema's separator.
func (s *IndexSchema) FolderComponents(folder string) []string {
	if folder == "" {
		return nil
	}
	sep := s.FolderSeparator
	if sep == "" {
		sep = DefaultFolderSeparator
	}
	return strings.Split(folder, sep)
}

// GenerateFilename renders the filename template against the field values.
// Template variables include {timestamp}, {sequential}, {date}, {time}, and
// every non-empty field value keyed by its lowercased, space-to-underscore
// name. On a missing template variable the result falls back to the
// timestamp joined with the filename-role values. Deterministic for
// identical inputs.
func (s *IndexSchema) GenerateFilename(values map[string]string, timestamp time.Time, sequential int) string {
	filenameFields := s.sortedByOrder(s.FieldsByRole(domain.RoleFilename))
	var fileParts []string
	for _, f := range filenameFields {
		value := strings.TrimSpace(values[f.Name])
		if value == "" {
			continue
		}
		if clean := domain.SafeFileName(value); clean != "" {
			fileParts = append(fileParts, clean)
		}
	}

	seq := sequential
	if seq < 1 {
		seq = 1
	}
	vars := map[string]string{
		"timestamp":  timestamp.Format("20060102_150405"),
		"sequential": fmt.Sprintf("%03d", seq),
		"date":       timestamp.Format("2006-01-02"),
		"time":       timestamp.Format("15-04-05"),
	}
	for name, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(name), " ", "_")
		vars[key] = domain.SafeFileName(trimmed)
	}

	filename, err := renderTemplate(s.FilenameTemplate, vars)
	if err != nil {
		filename = vars["timestamp"]
		if len(fileParts) > 0 {
			filename += "_" + strings.Join(fileParts, "_")
		}
	}

	// Append filename-role values the template did not already include.
	if len(fileParts) > 0 {
		included := false
		for _, part := range fileParts {
			if strings.Contains(filename, part) {
				included = true
				break
			}
		}
		if !included {
			filename += "_" + strings.Join(fileParts, "_")
		}
	}

	return domain.SafeFileName(filename)
}

// renderTemplate substitutes every {name} placeholder from vars. It fails if
// any placeholder has no matching variable.
func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	var missing string
	out := templateVarPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		if missing == "" {
			missing = key
		}
		return m
	})
	if missing != "" {
		return "", fmt.Errorf("template variable %q has no value", missing)
	}
	return out, nil
}

func (s *IndexSchema) sortedByOrder(fields []*IndexField) []*IndexField {
	sorted := append([]*IndexField(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})
	return sorted
}

// ToJSON serializes the schema to its persisted file format.
func (s *IndexSchema) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON deserializes a schema, filling defaults for omitted fields.
func FromJSON(data []byte) (*IndexSchema, error) {
	var s IndexSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid schema JSON: %w: %v", domain.ErrInvalidSchema, err)
	}
	if s.Version == "" {
		s.Version = "1.0"
	}
	if s.FolderSeparator == "" {
		s.FolderSeparator = DefaultFolderSeparator
	}
	if s.FilenameTemplate == "" {
		s.FilenameTemplate = DefaultFilenameTemplate
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Fields == nil {
		s.Fields = []*IndexField{}
	}
	return &s, nil
}

// Clone deep-copies the schema by round-tripping through its JSON form.
func (s *IndexSchema) Clone() (*IndexSchema, error) {
	data, err := s.ToJSON()
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// FieldSummary reports per-role and per-type field counts.
func (s *IndexSchema) FieldSummary() map[string]int {
	summary := map[string]int{
		"total_fields":    len(s.Fields),
		"required_fields": len(s.RequiredFields()),
		"folder_fields":   len(s.FieldsByRole(domain.RoleFolder)),
		"filename_fields": len(s.FieldsByRole(domain.RoleFilename)),
		"metadata_fields": len(s.FieldsByRole(domain.RoleMetadata)),
	}
	for _, t := range domain.FieldTypes {
		count := 0
		for _, f := range s.Fields {
			if f.Type == t {
				count++
			}
		}
		summary[string(t)+"_fields"] = count
	}
	return summary
}

func (s *IndexSchema) String() string {
	return fmt.Sprintf("IndexSchema(%q, %d fields, %d required)", s.Name, len(s.Fields), len(s.RequiredFields()))
}
