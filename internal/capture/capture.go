// Package capture acquires record sleeve photos and validates them before
// they enter the identification pipeline.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"teko/internal/services"
)

// DefaultMaxBytes caps a capture when no limit is configured.
const DefaultMaxBytes int64 = 10 << 20

var (
	// ErrPermissionDenied means the source could not be read.
	ErrPermissionDenied = fmt.Errorf("capture: permission denied: %w", services.ErrUnauthorized)
	// ErrEmptyImage means the source produced no bytes.
	ErrEmptyImage = fmt.Errorf("capture: empty image: %w", services.ErrValidation)
	// ErrUnsupportedImage means the payload is not an accepted image type.
	ErrUnsupportedImage = fmt.Errorf("capture: unsupported image: %w", services.ErrValidation)
	// ErrTooLarge means the payload exceeded the size limit.
	ErrTooLarge = fmt.Errorf("capture: image too large: %w", services.ErrValidation)
)

var supportedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Result is a validated photo. It is owned by one pipeline run.
type Result struct {
	Data        []byte
	ContentType string
}

// Size returns the payload length in bytes.
func (r Result) Size() int { return len(r.Data) }

// Source produces a photo to identify.
type Source interface {
	Capture(ctx context.Context) (Result, error)
}

// FileSource reads a photo from disk.
type FileSource struct {
	Path     string
	MaxBytes int64
}

// Capture reads and validates the file.
func (s FileSource) Capture(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	file, err := os.Open(strings.TrimSpace(s.Path))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Result{}, fmt.Errorf("%w: %s", ErrPermissionDenied, s.Path)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s does not exist", ErrEmptyImage, s.Path)
		}
		return Result{}, fmt.Errorf("open capture %s: %w", s.Path, err)
	}
	defer file.Close()
	return ReaderSource{Reader: file, MaxBytes: s.MaxBytes}.Capture(ctx)
}

// ReaderSource reads a photo from an upload body or other stream.
type ReaderSource struct {
	Reader io.Reader
	// ContentType is the declared type; it is checked against the sniffed type.
	ContentType string
	MaxBytes    int64
}

// Capture reads at most MaxBytes+1 bytes and validates them.
func (s ReaderSource) Capture(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.Reader == nil {
		return Result{}, ErrEmptyImage
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(s.Reader, limit+1))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Result{}, ErrPermissionDenied
		}
		return Result{}, fmt.Errorf("read capture: %w", err)
	}
	if int64(len(data)) > limit {
		return Result{}, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}
	return FromBytes(data, s.ContentType)
}

// BytesSource wraps an in-memory photo.
type BytesSource struct {
	Data        []byte
	ContentType string
}

// Capture validates the wrapped bytes.
func (s BytesSource) Capture(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return FromBytes(s.Data, s.ContentType)
}

// FromBytes validates data and determines its content type by sniffing. A
// declared type of application/octet-stream or empty defers to the sniffed
// type.
func FromBytes(data []byte, declared string) (Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Result{}, ErrEmptyImage
	}
	sniffed := http.DetectContentType(data)
	if _, ok := supportedTypes[sniffed]; !ok {
		return Result{}, fmt.Errorf("%w: detected %s", ErrUnsupportedImage, sniffed)
	}
	declared = normalizeType(declared)
	if declared != "" && declared != "application/octet-stream" && declared != sniffed {
		return Result{}, fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedImage, declared, sniffed)
	}
	return Result{Data: data, ContentType: sniffed}, nil
}

func normalizeType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	if value == "image/jpg" {
		return "image/jpeg"
	}
	return value
}
