// Package pdf moves puzzle-box images in and out of PDF files: scans of a
// box lid can be read as input, and the corrected texture can be laid out
// on a page of its real-world size for printing.
package pdf

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/puzzlebox/internal/utils"
	pdfreader "github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoImages reports a PDF without embedded raster images.
var ErrNoImages = errors.New("pdf contains no images")

// ExtractImages extracts the raster images embedded in a PDF, in file name
// order. page selects a single page; 0 means every page.
func ExtractImages(filename string, page int) ([]image.Image, error) {
	if page < 0 {
		return nil, fmt.Errorf("invalid page %d", page)
	}

	tempDir, err := os.MkdirTemp("", "puzzlebox-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pages []string
	if page > 0 {
		pages = []string{strconv.Itoa(page)}
	}
	if err := api.ExtractImagesFile(filename, tempDir, pages, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	images, err := collectExtractedImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(filename string) (int, error) {
	r, err := pdfreader.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r.NumPage(), nil
}

// FirstImage returns the first image of the first page that has one.
// Pages are scanned one at a time so a long scan stops at its first photo.
func FirstImage(filename string) (image.Image, error) {
	pages, err := PageCount(filename)
	if err != nil || pages <= 1 {
		images, err := ExtractImages(filename, 0)
		if err != nil {
			return nil, err
		}
		return images[0], nil
	}
	for page := 1; page <= pages; page++ {
		images, err := ExtractImages(filename, page)
		if errors.Is(err, ErrNoImages) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return images[0], nil
	}
	return nil, ErrNoImages
}

// LoadInput reads a photo, or the first embedded image when path names a
// PDF scan.
func LoadInput(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		img, err := FirstImage(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return img, nil
	}
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// collectExtractedImages loads every decodable image in dir, sorted by name.
func collectExtractedImages(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && utils.IsSupportedImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, _, err := utils.LoadImage(filepath.Join(dir, name))
		if err != nil {
			// Skip unreadable images
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

// ImportImage writes a one-page PDF at outPath whose page measures
// widthCm x heightCm and is filled by the image at imagePath. An existing
// file at outPath is replaced.
func ImportImage(imagePath, outPath string, widthCm, heightCm float64) error {
	if widthCm <= 0 || heightCm <= 0 {
		return fmt.Errorf("page size must be positive, got %gx%g cm", widthCm, heightCm)
	}
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("pdf image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("create pdf dir: %w", err)
	}

	imp, err := api.Import(fmt.Sprintf("dimensions:%.2f %.2f, position:full", widthCm, heightCm), types.CENTIMETRES)
	if err != nil {
		return fmt.Errorf("pdf import settings: %w", err)
	}
	// ImportImagesFile appends to an existing file.
	if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace pdf: %w", err)
	}
	if err := api.ImportImagesFile([]string{imagePath}, outPath, imp, nil); err != nil {
		return fmt.Errorf("pdf import: %w", err)
	}
	return nil
}
