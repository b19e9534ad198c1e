package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"scandex/internal/domain"
	"scandex/internal/events"
)

const schemaExtension = ".json"

// Store persists schemas as one JSON file per schema under a directory.
// Loaded schemas are cached; Save and Delete keep timestamped backups.
type Store struct {
	dir   string
	bus   *events.Bus
	mu    sync.Mutex
	cache map[string]*IndexSchema
}

// NewStore opens a schema store rooted at dir, creating the directory and
// seeding the built-in schemas when it is empty. bus may be nil.
func NewStore(dir string, bus *events.Bus) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("schema store: create directory %s: %w", dir, err)
	}
	s := &Store{dir: dir, bus: bus, cache: make(map[string]*IndexSchema)}

	names, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		log.Printf("Store.NewStore: seeding default schemas into %s", dir)
		for _, schema := range DefaultSchemas() {
			if err := s.Save(schema); err != nil {
				return nil, fmt.Errorf("schema store: seed %q: %w", schema.Name, err)
			}
		}
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the names of all persisted schemas, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("schema store: read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), schemaExtension) {
			continue
		}
		if strings.Contains(e.Name(), ".backup_") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), schemaExtension))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a schema by name, returning a cached copy when available.
func (s *Store) Load(name string) (*IndexSchema, error) {
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.fileFor(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("schema %q: %w", name, domain.ErrSchemaNotFound)
		}
		return nil, fmt.Errorf("schema store: read %q: %w", name, err)
	}

	schema, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("schema store: parse %q: %w", name, err)
	}
	if errs := s.persistedValidation(schema); len(errs) > 0 {
		return nil, fmt.Errorf("schema %q failed validation: %s: %w", name, strings.Join(errs, "; "), domain.ErrInvalidSchema)
	}

	s.mu.Lock()
	s.cache[name] = schema
	s.mu.Unlock()

	log.Printf("Store.Load: loaded schema %q from %s", name, s.dir)
	if s.bus != nil {
		s.bus.Publish(events.SchemaLoaded, schema.Name)
	}
	return schema, nil
}

// Save validates and writes a schema, backing up any existing file first.
func (s *Store) Save(schema *IndexSchema) error {
	if strings.TrimSpace(schema.Name) == "" {
		return fmt.Errorf("schema must have a name to save: %w", domain.ErrInvalidSchema)
	}
	if errs := s.persistedValidation(schema); len(errs) > 0 {
		return fmt.Errorf("cannot save invalid schema %q: %s: %w", schema.Name, strings.Join(errs, "; "), domain.ErrInvalidSchema)
	}

	path := s.fileFor(schema.Name)
	if _, err := os.Stat(path); err == nil {
		backup := strings.TrimSuffix(path, schemaExtension) +
			".backup_" + time.Now().Format("20060102_150405") + schemaExtension
		if err := copyFile(path, backup); err != nil {
			log.Printf("Store.Save: backup of %q failed: %v", schema.Name, err)
		}
	}

	schema.ModifiedDate = time.Now()
	if schema.CreatedDate.IsZero() {
		schema.CreatedDate = schema.ModifiedDate
	}

	data, err := schema.ToJSON()
	if err != nil {
		return fmt.Errorf("schema store: marshal %q: %w", schema.Name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("schema store: write %q: %w", schema.Name, err)
	}

	s.mu.Lock()
	s.cache[schema.Name] = schema
	s.mu.Unlock()

	log.Printf("Store.Save: saved schema %q", schema.Name)
	if s.bus != nil {
		s.bus.Publish(events.SchemaSaved, schema.Name)
	}
	return nil
}

// Delete removes a schema file, keeping a copy under a deleted/ subdirectory.
func (s *Store) Delete(name string) error {
	path := s.fileFor(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("schema %q: %w", name, domain.ErrSchemaNotFound)
		}
		return fmt.Errorf("schema store: stat %q: %w", name, err)
	}

	deletedDir := filepath.Join(s.dir, "deleted")
	if err := os.MkdirAll(deletedDir, 0o755); err == nil {
		backup := filepath.Join(deletedDir,
			fmt.Sprintf("%s_deleted_%s%s", name, time.Now().Format("20060102_150405"), schemaExtension))
		if err := copyFile(path, backup); err != nil {
			log.Printf("Store.Delete: backup of %q failed: %v", name, err)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("schema store: delete %q: %w", name, err)
	}

	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()

	log.Printf("Store.Delete: deleted schema %q", name)
	if s.bus != nil {
		s.bus.Publish(events.SchemaDeleted, name)
	}
	return nil
}

// Duplicate clones an existing schema under a new name and persists it.
func (s *Store) Duplicate(sourceName, newName string) (*IndexSchema, error) {
	source, err := s.Load(sourceName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.fileFor(newName)); err == nil {
		return nil, fmt.Errorf("schema %q: %w", newName, domain.ErrDuplicateSchema)
	}

	clone, err := source.Clone()
	if err != nil {
		return nil, fmt.Errorf("schema store: clone %q: %w", sourceName, err)
	}
	clone.Name = newName
	clone.Description = "Copy of " + source.Description
	clone.CreatedDate = time.Now()
	clone.ModifiedDate = clone.CreatedDate

	if err := s.Save(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// Refresh drops the cached copy and reloads from disk.
func (s *Store) Refresh(name string) (*IndexSchema, error) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
	return s.Load(name)
}

// persistedValidation applies the stricter invariants required of a stored
// schema: structural validity, a filename-role field, and dropdown fields
// with at least two options.
func (s *Store) persistedValidation(schema *IndexSchema) []string {
	errs := schema.Validate()
	if len(schema.FieldsByRole(domain.RoleFilename)) == 0 {
		errs = append(errs, "schema must have at least one field with the filename role")
	}
	for _, f := range schema.Fields {
		if f.Type == domain.FieldTypeDropdown && len(f.DropdownOptions) < 2 {
			errs = append(errs, fmt.Sprintf("dropdown field %q must have at least 2 options", f.Name))
		}
	}
	return errs
}

func (s *Store) fileFor(name string) string {
	return filepath.Join(s.dir, name+schemaExtension)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
