package service

import (
	"context"
	"time"

	"scandex/internal/schema"
)

// SchemaInfo is the listing DTO for a stored schema.
type SchemaInfo struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Version      string    `json:"version"`
	Category     string    `json:"category"`
	FieldCount   int       `json:"field_count"`
	ModifiedDate time.Time `json:"modified_date"`
}

// SchemaService defines the index schema library contract.
type SchemaService interface {
	List(ctx context.Context) ([]SchemaInfo, error)
	Get(ctx context.Context, name string) (*schema.IndexSchema, error)
	Save(ctx context.Context, s *schema.IndexSchema) error
	Delete(ctx context.Context, name string) error
	Duplicate(ctx context.Context, sourceName, newName string) (*schema.IndexSchema, error)
	Refresh(ctx context.Context, name string) (*schema.IndexSchema, error)
}

type schemaService struct {
	store *schema.Store
}

// NewSchemaService creates a SchemaService backed by the on-disk schema store.
func NewSchemaService(store *schema.Store) SchemaService {
	return &schemaService{store: store}
}

func (s *schemaService) List(ctx context.Context) ([]SchemaInfo, error) {
	names, err := s.store.List()
	if err != nil {
		return nil, err
	}
	infos := make([]SchemaInfo, 0, len(names))
	for _, name := range names {
		loaded, err := s.store.Load(name)
		if err != nil {
			// A file that stopped parsing should not hide the rest of the
			// library.
			continue
		}
		infos = append(infos, SchemaInfo{
			Name:         loaded.Name,
			Description:  loaded.Description,
			Version:      loaded.Version,
			Category:     loaded.Category,
			FieldCount:   len(loaded.Fields),
			ModifiedDate: loaded.ModifiedDate,
		})
	}
	return infos, nil
}

func (s *schemaService) Get(ctx context.Context, name string) (*schema.IndexSchema, error) {
	return s.store.Load(name)
}

func (s *schemaService) Save(ctx context.Context, sc *schema.IndexSchema) error {
	return s.store.Save(sc)
}

func (s *schemaService) Delete(ctx context.Context, name string) error {
	return s.store.Delete(name)
}

func (s *schemaService) Duplicate(ctx context.Context, sourceName, newName string) (*schema.IndexSchema, error) {
	return s.store.Duplicate(sourceName, newName)
}

func (s *schemaService) Refresh(ctx context.Context, name string) (*schema.IndexSchema, error) {
	return s.store.Refresh(name)
}
