package domain

import (
	"path/filepath"
	"time"
)

// ScannedFile is a source PDF registered with a batch.
type ScannedFile struct {
	FileID    string    `json:"file_id"`
	Path      string    `json:"path"`
	PageCount int       `json:"page_count"`
	FileSize  int64     `json:"file_size"`
	AddedAt   time.Time `json:"added_at"`
}

// Name returns the base filename of the source file.
func (f ScannedFile) Name() string {
	return filepath.Base(f.Path)
}

// Pages returns references to every page of the file, in order.
func (f ScannedFile) Pages() []PageReference {
	pages := make([]PageReference, 0, f.PageCount)
	for i := 1; i <= f.PageCount; i++ {
		pages = append(pages, PageReference{FileID: f.FileID, PageNumber: i})
	}
	return pages
}
