// Package pdfimg accepts scanned documents delivered as PDF by extracting the
// embedded page image. Scanner apps and e-mail workflows commonly wrap a
// single photographed invoice in a one-page PDF; the first page image is the
// document.
package pdfimg

import (
	"bytes"
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

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoImages is returned when the PDF contains no extractable images.
var ErrNoImages = errors.New("pdf contains no images")

// pdfMagic is the header every PDF starts with.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the data looks like a PDF document.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// FirstImage extracts the first embedded image (lowest page, first image on
// that page) from PDF bytes. Temporary files are removed before returning.
func FirstImage(data []byte) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "docmatch-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	pdfPath := filepath.Join(tempDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.MkdirAll(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("create extract directory: %w", err)
	}

	if err := api.ExtractImagesFile(pdfPath, outDir, nil, nil); err != nil {
		return nil, fmt.Errorf("extract images from pdf: %w", err)
	}

	path, err := firstImagePath(outDir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path is under our temp dir
	if err != nil {
		return nil, fmt.Errorf("open extracted image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode extracted image: %w", err)
	}
	return img, nil
}

// firstImagePath picks the extracted file with the lowest page number.
// pdfcpu names extracted files like doc_1_Im0.png (<name>_<page>_<resource>).
func firstImagePath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read extract directory: %w", err)
	}

	type pageFile struct {
		page int
		path string
	}
	var files []pageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, ok := parsePageFromFilename(e.Name())
		if !ok {
			continue
		}
		files = append(files, pageFile{page: page, path: filepath.Join(dir, e.Name())})
	}
	if len(files) == 0 {
		return "", ErrNoImages
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].page != files[j].page {
			return files[i].page < files[j].page
		}
		return files[i].path < files[j].path
	})
	return files[0].path, nil
}

// parsePageFromFilename pulls the page number out of a pdfcpu extract
// filename. The page is the first all-digit underscore-separated token.
func parsePageFromFilename(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, part := range strings.Split(base, "_") {
		if page, err := strconv.Atoi(part); err == nil {
			return page, true
		}
	}
	return 0, false
}
