package port

import "context"

// PagePick selects one page of one source PDF for merging. Page numbers are
// 1-based.
type PagePick struct {
	SourcePath string
	PageNumber int
}

// ThumbnailSize is the requested pixel bound of a rendered page thumbnail.
type ThumbnailSize struct {
	Width  int
	Height int
}

// PDFService abstracts the PDF manipulation backend. Every operation is
// blocking and fails with an error identifying the file and, where
// applicable, the page involved; invalid pages are never silently skipped.
type PDFService interface {
	// MergePages builds outputPath from the picks in exactly the given order.
	// It fails if any source file is missing or any page number exceeds its
	// file's page count.
	MergePages(ctx context.Context, picks []PagePick, outputPath string) error

	// GetPageCount returns the number of pages in a PDF.
	GetPageCount(ctx context.Context, path string) (int, error)

	// AddMetadata writes document properties onto an existing PDF.
	AddMetadata(ctx context.Context, path string, properties map[string]string) error

	// OptimizePDF rewrites the PDF in place with redundant objects removed
	// and streams compressed.
	OptimizePDF(ctx context.Context, path string) error

	// GeneratePageThumbnail renders one page to an image file and returns
	// the image path.
	GeneratePageThumbnail(ctx context.Context, path string, pageNumber int, size ThumbnailSize) (string, error)

	// RotatePages rotates the given pages in place. Degrees must be a
	// multiple of 90 in [-270, 270].
	RotatePages(ctx context.Context, path string, pageNumbers []int, degrees int) error

	// SplitPDF writes each page of the source as a standalone PDF into
	// outputDir and returns the created file paths in page order.
	SplitPDF(ctx context.Context, path, outputDir string) ([]string, error)

	// ExtractPages writes the selected pages of the source into a new PDF.
	ExtractPages(ctx context.Context, path string, pageNumbers []int, outputPath string) error
}
