package pdf

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"scandex/internal/domain"
	"scandex/internal/port"
)

const thumbnailJPEGQuality = 80

// GeneratePageThumbnail renders a thumbnail for one page of a scanned PDF.
// Scanner output embeds each page as a single raster image, so the page
// image is extracted and downscaled to fit the requested bounds. The
// thumbnail is written next to a temp workspace and its path returned; the
// caller owns the file.
func (s *Service) GeneratePageThumbnail(ctx context.Context, path string, pageNumber int, size port.ThumbnailSize) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if size.Width < 1 || size.Height < 1 {
		return "", fmt.Errorf("thumbnail bounds must be positive, got %dx%d", size.Width, size.Height)
	}
	count, err := s.GetPageCount(ctx, path)
	if err != nil {
		return "", err
	}
	if pageNumber < 1 || pageNumber > count {
		return "", fmt.Errorf("%w: %s page %d of %d", domain.ErrInvalidPageNumber, path, pageNumber, count)
	}

	tmpDir, err := os.MkdirTemp("", "scandex-thumb-*")
	if err != nil {
		return "", fmt.Errorf("creating thumbnail workspace: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	sel := []string{strconv.Itoa(pageNumber)}
	if err := api.ExtractImagesFile(path, tmpDir, sel, s.conf); err != nil {
		return "", fmt.Errorf("extracting page image %d of %s: %w", pageNumber, path, err)
	}
	src, err := firstImage(tmpDir)
	if err != nil {
		return "", fmt.Errorf("page %d of %s: %w", pageNumber, path, err)
	}

	img, err := decodeImage(src)
	if err != nil {
		return "", fmt.Errorf("decoding page image for %s: %w", path, err)
	}
	thumb := scaleToFit(img, size.Width, size.Height)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out, err := os.CreateTemp("", fmt.Sprintf("%s_p%d_*.jpg", domain.SafeFileName(base), pageNumber))
	if err != nil {
		return "", fmt.Errorf("creating thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("encoding thumbnail for %s: %w", path, err)
	}
	return out.Name(), nil
}

// firstImage returns the first extracted image file in dir.
func firstImage(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no raster image on page")
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode(f)
	default:
		img, _, err := image.Decode(f)
		return img, err
	}
}

// scaleToFit downscales img so it fits within maxW x maxH, preserving aspect
// ratio. Images already within bounds are returned unchanged.
func scaleToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		sy := b.Min.Y + y*h/dh
		for x := 0; x < dw; x++ {
			sx := b.Min.X + x*w/dw
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}
