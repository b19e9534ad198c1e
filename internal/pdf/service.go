package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"scandex/internal/domain"
	"scandex/internal/port"
)

// Service implements port.PDFService on top of pdfcpu.
type Service struct {
	conf *model.Configuration
}

// NewService creates a PDF service with pdfcpu's relaxed default
// configuration, which tolerates the slightly malformed output some scanner
// firmware produces.
func NewService() *Service {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Service{conf: conf}
}

// GetPageCount returns the page count of the PDF at path.
func (s *Service) GetPageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading page count of %s: %w", path, err)
	}
	return count, nil
}

// MergePages assembles outputPath from the picks in exactly the given order.
// Each pick is extracted to its own intermediate file first, so pages from
// the same source may appear multiple times and in any order.
func (s *Service) MergePages(ctx context.Context, picks []port.PagePick, outputPath string) error {
	if len(picks) == 0 {
		return fmt.Errorf("merge into %s: no pages selected", outputPath)
	}

	counts := make(map[string]int)
	for _, p := range picks {
		if p.PageNumber < 1 {
			return fmt.Errorf("%w: %s page %d", domain.ErrInvalidPageNumber, p.SourcePath, p.PageNumber)
		}
		if _, ok := counts[p.SourcePath]; !ok {
			n, err := s.GetPageCount(ctx, p.SourcePath)
			if err != nil {
				return err
			}
			counts[p.SourcePath] = n
		}
		if p.PageNumber > counts[p.SourcePath] {
			return fmt.Errorf("%s has %d pages, cannot take page %d",
				p.SourcePath, counts[p.SourcePath], p.PageNumber)
		}
	}

	tmpDir, err := os.MkdirTemp("", "scandex-merge-*")
	if err != nil {
		return fmt.Errorf("creating merge workspace: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	parts := make([]string, 0, len(picks))
	for i, p := range picks {
		if err := ctx.Err(); err != nil {
			return err
		}
		part := filepath.Join(tmpDir, fmt.Sprintf("part_%04d.pdf", i))
		sel := []string{strconv.Itoa(p.PageNumber)}
		if err := api.TrimFile(p.SourcePath, part, sel, s.conf); err != nil {
			return fmt.Errorf("extracting page %d of %s: %w", p.PageNumber, p.SourcePath, err)
		}
		parts = append(parts, part)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", outputPath, err)
	}
	if err := api.MergeCreateFile(parts, outputPath, false, s.conf); err != nil {
		return fmt.Errorf("merging %d pages into %s: %w", len(picks), outputPath, err)
	}
	return nil
}

// AddMetadata writes document properties onto the PDF in place.
func (s *Service) AddMetadata(ctx context.Context, path string, properties map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(properties) == 0 {
		return nil
	}
	if err := api.AddPropertiesFile(path, "", properties, s.conf); err != nil {
		return fmt.Errorf("writing metadata to %s: %w", path, err)
	}
	return nil
}

// OptimizePDF rewrites the PDF in place, dropping redundant objects and
// compressing streams.
func (s *Service) OptimizePDF(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	if err := api.OptimizeFile(path, "", s.conf); err != nil {
		return fmt.Errorf("optimizing %s: %w", path, err)
	}
	return nil
}

// RotatePages rotates the given pages in place. Degrees must be a nonzero
// multiple of 90 between -270 and 270.
func (s *Service) RotatePages(ctx context.Context, path string, pageNumbers []int, degrees int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if degrees == 0 || degrees%90 != 0 || degrees < -270 || degrees > 270 {
		return fmt.Errorf("rotation must be a multiple of 90 in [-270, 270], got %d", degrees)
	}
	count, err := s.GetPageCount(ctx, path)
	if err != nil {
		return err
	}
	sel := make([]string, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if n < 1 || n > count {
			return fmt.Errorf("%w: %s page %d of %d", domain.ErrInvalidPageNumber, path, n, count)
		}
		sel = append(sel, strconv.Itoa(n))
	}
	if err := api.RotateFile(path, "", degrees, sel, s.conf); err != nil {
		return fmt.Errorf("rotating pages of %s: %w", path, err)
	}
	return nil
}

// SplitPDF writes every page of the source as its own PDF into outputDir and
// returns the created paths in page order.
func (s *Service) SplitPDF(ctx context.Context, path, outputDir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating split output directory: %w", err)
	}
	if err := api.SplitFile(path, outputDir, 1, s.conf); err != nil {
		return nil, fmt.Errorf("splitting %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	matches, err := filepath.Glob(filepath.Join(outputDir, base+"_*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("listing split output: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		return splitIndex(matches[i]) < splitIndex(matches[j])
	})
	return matches, nil
}

// ExtractPages writes the selected pages into a new PDF, keeping the source
// document's page order.
func (s *Service) ExtractPages(ctx context.Context, path string, pageNumbers []int, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(pageNumbers) == 0 {
		return fmt.Errorf("extract from %s: no pages selected", path)
	}
	count, err := s.GetPageCount(ctx, path)
	if err != nil {
		return err
	}
	sel := make([]string, 0, len(pageNumbers))
	for _, n := range pageNumbers {
		if n < 1 || n > count {
			return fmt.Errorf("%w: %s page %d of %d", domain.ErrInvalidPageNumber, path, n, count)
		}
		sel = append(sel, strconv.Itoa(n))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory for %s: %w", outputPath, err)
	}
	if err := api.TrimFile(path, outputPath, sel, s.conf); err != nil {
		return fmt.Errorf("extracting pages of %s: %w", path, err)
	}
	return nil
}

// splitIndex pulls the numeric suffix pdfcpu appends to split output files.
func splitIndex(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".pdf")
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
