package domain

import "fmt"

// PageReference identifies a single page inside a scanned source file.
// Page numbers are 1-based.
type PageReference struct {
	FileID     string `json:"file_id"`
	PageNumber int    `json:"page_number"`
}

// NewPageReference validates and builds a PageReference.
func NewPageReference(fileID string, pageNumber int) (PageReference, error) {
	if fileID == "" {
		return PageReference{}, fmt.Errorf("page reference: empty file id: %w", ErrFileNotFound)
	}
	if pageNumber < 1 {
		return PageReference{}, fmt.Errorf("page reference: page %d: %w", pageNumber, ErrInvalidPageNumber)
	}
	return PageReference{FileID: fileID, PageNumber: pageNumber}, nil
}

// PageID returns a stable identifier of the form "file_id:page_number",
// used as a map key when detecting duplicate page assignments.
func (p PageReference) PageID() string {
	return fmt.Sprintf("%s:%d", p.FileID, p.PageNumber)
}

func (p PageReference) String() string {
	return p.PageID()
}
