package assignment

import (
	"fmt"
	"path"
	"strings"
	"time"

	"scandex/internal/domain"
)

// avgPageSizeBytes is the assumed per-page size when estimating output size.
const avgPageSizeBytes = 50_000

// DocumentPreview describes the output document an assignment would produce.
type DocumentPreview struct {
	Filename       string                 `json:"filename"`
	FolderPath     string                 `json:"folder_path"`
	FolderSep      string                 `json:"-"`
	PageReferences []domain.PageReference `json:"page_references"`
	PageCount      int                    `json:"page_count"`
	EstimatedSize  int64                  `json:"estimated_size"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NewDocumentPreview builds a preview for the given output location and
// pages. folderSep is the separator the folder path was joined with; empty
// means "/".
func NewDocumentPreview(filename, folderPath, folderSep string, pages []domain.PageReference) *DocumentPreview {
	refs := append([]domain.PageReference(nil), pages...)
	if folderSep == "" {
		folderSep = "/"
	}
	return &DocumentPreview{
		Filename:       filename,
		FolderPath:     folderPath,
		FolderSep:      folderSep,
		PageReferences: refs,
		PageCount:      len(refs),
		EstimatedSize:  int64(len(refs)) * avgPageSizeBytes,
		CreatedAt:      time.Now(),
	}
}

// FullPath returns the relative output path including the .pdf extension.
func (p *DocumentPreview) FullPath() string {
	name := p.Filename + ".pdf"
	if p.FolderPath == "" {
		return name
	}
	return path.Join(p.FolderPath, name)
}

// ValidatePaths checks the preview's folder and filename for filesystem
// legality. An empty slice means the paths are acceptable.
func (p *DocumentPreview) ValidatePaths() []string {
	var errs []string

	if domain.HasInvalidChars(p.Filename) {
		errs = append(errs, "filename contains invalid characters")
	}
	if domain.IsReservedName(p.Filename) {
		errs = append(errs, "filename uses reserved system name")
	}

	if p.FolderPath != "" {
		sep := p.FolderSep
		if sep == "" {
			sep = "/"
		}
		for _, part := range strings.Split(p.FolderPath, sep) {
			if domain.HasInvalidChars(part) {
				errs = append(errs, fmt.Sprintf("folder name %q contains invalid characters", part))
			}
			if domain.IsReservedName(part) {
				errs = append(errs, fmt.Sprintf("folder name %q uses reserved system name", part))
			}
		}
	}

	if full := p.FullPath(); len(full) > domain.MaxPathLength {
		errs = append(errs, fmt.Sprintf("complete path is too long (%d > %d)", len(full), domain.MaxPathLength))
	}

	return errs
}
