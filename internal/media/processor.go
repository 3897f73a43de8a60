// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media processes gallery uploads: it normalizes orientation,
// extracts the EXIF capture time, and produces a thumbnail variant
// using pure Go libraries.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Thumbnail variant bounds and quality.
const (
	ThumbWidth    = 480
	ThumbHeight   = 480
	thumbQuality  = 82
	originalQual  = 95
	originalsPart = "originals"
	thumbsPart    = "thumbs"
)

// Result describes one processed gallery upload.
type Result struct {
	Width     int
	Height    int
	Size      int64
	FilePath  string
	ThumbPath string
	TakenAt   *time.Time // EXIF capture time, when present
}

// Processor saves gallery images and their thumbnails under uploadDir.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a gallery image processor.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// Process reads an uploaded image, applies the EXIF orientation,
// saves the normalized original plus a thumbnail, and reports the
// capture time when the EXIF block carries one.
func (p *Processor) Process(reader io.Reader, id, filename string) (*Result, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Orientation and capture time both live in the EXIF block. The
	// pure Go encoders drop EXIF on re-encode, so bake the rotation in
	// and keep the timestamp separately.
	orientation, takenAt := readExif(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()

	original, err := encodeImage(img, format, originalQual)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	filePath, err := p.saveImageFile(filepath.Join(originalsPart, id), filename, original)
	if err != nil {
		return nil, fmt.Errorf("saving original: %w", err)
	}

	thumb := imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)
	thumbData, err := encodeImage(thumb, format, thumbQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	thumbPath, err := p.saveImageFile(filepath.Join(thumbsPart, id), filename, thumbData)
	if err != nil {
		return nil, fmt.Errorf("saving thumbnail: %w", err)
	}

	return &Result{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Size:      int64(len(original)),
		FilePath:  filePath,
		ThumbPath: thumbPath,
		TakenAt:   takenAt,
	}, nil
}

// Delete removes the original and thumbnail files for one image id.
func (p *Processor) Delete(id string) error {
	for _, part := range []string{originalsPart, thumbsPart} {
		dir := filepath.Join(p.uploadDir, part, id)
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting %s: %w", part, err)
		}
	}
	return nil
}

// IsImage checks whether raw upload data looks like a processable image.
func (p *Processor) IsImage(data []byte) bool {
	return detectFormat(data) != ""
}

// readExif reads the orientation tag and capture time from image data.
// Orientation defaults to 1 (normal); the capture time is nil when the
// image carries no usable EXIF block.
func readExif(r io.Reader) (int, *time.Time) {
	x, err := exif.Decode(r)
	if err != nil {
		return 1, nil
	}

	orientation := 1
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			orientation = v
		}
	}

	var takenAt *time.Time
	if t, err := x.DateTime(); err == nil {
		takenAt = &t
	}

	return orientation, takenAt
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image to bytes with the specified format and quality.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		// JPEG output, including webp sources: webp decoding is
		// supported but pure Go encoding is not.
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// saveImageFile creates the directory if needed and saves image data to a file.
// The filename is sanitized and the target directory is validated to be within uploadDir.
func (p *Processor) saveImageFile(subDir, filename string, data []byte) (string, error) {
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == ".." || safeFilename == "" {
		return "", fmt.Errorf("invalid filename")
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}

	absTarget := filepath.Join(absBase, cleanSubDir)

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}

	filePath := filepath.Join(absTarget, safeFilename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return filePath, nil
}
