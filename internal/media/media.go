package media

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	pdfType      = "application/pdf"
	fallbackType = "application/octet-stream"
	sniffLen     = 512
)

// File is an attachment acquired by a drop or a picker selection.
type File struct {
	Name      string
	Path      string
	MediaType string
	Size      int64
}

var (
	// ErrUnsupportedType matches every *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNotRegularFile is returned by Load for directories and devices.
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrTooLarge is returned by ReadAll when the file exceeds the limit.
	ErrTooLarge = errors.New("file too large")
)

// UnsupportedTypeError reports a file that is neither an image nor a PDF.
type UnsupportedTypeError struct {
	Name      string
	MediaType string
}

func (e *UnsupportedTypeError) Error() string {
	mt := e.MediaType
	if mt == "" {
		mt = "unknown type"
	}
	if e.Name == "" {
		return fmt.Sprintf("unsupported file type %s: attach an image or a PDF", mt)
	}
	return fmt.Sprintf("unsupported file type %s (%s): attach an image or a PDF", mt, e.Name)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// extTypes is the declared type table used by both Detect and the picker filter.
var extTypes = map[string]string{
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".heic": "image/heic",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".pdf":  pdfType,
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Accepts reports whether mediaType is an image type or exactly application/pdf.
// Parameters such as charset are ignored.
func Accepts(mediaType string) bool {
	mt := Normalize(mediaType)
	return strings.HasPrefix(mt, "image/") || mt == pdfType
}

// IsPDF reports whether mediaType names a PDF document.
func IsPDF(mediaType string) bool {
	return Normalize(mediaType) == pdfType
}

// IsImage reports whether mediaType names an image.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(Normalize(mediaType), "image/")
}

// Check returns an *UnsupportedTypeError when f is not acceptable.
func Check(f File) error {
	if Accepts(f.MediaType) {
		return nil
	}
	return &UnsupportedTypeError{Name: f.Name, MediaType: Normalize(f.MediaType)}
}

// Normalize lowercases a media type and strips its parameters.
func Normalize(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// PickerExtensions lists the extensions offered by the file picker, sorted.
func PickerExtensions() []string {
	exts := make([]string, 0, len(extTypes))
	for ext := range extTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Detect returns the declared media type of name. The extension wins; content
// sniffing of head is the fallback for unknown extensions.
func Detect(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extTypes[ext]; ok {
		return mt
	}
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return Normalize(byExt)
		}
	}
	if len(head) > 0 {
		return Normalize(http.DetectContentType(head))
	}
	return fallbackType
}

// Load stats path and sniffs its media type. It does not validate the type.
func Load(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if !info.Mode().IsRegular() {
		return File{}, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(fh, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return File{
		Name:      filepath.Base(path),
		Path:      abs,
		MediaType: Detect(path, head[:n]),
		Size:      info.Size(),
	}, nil
}

// ReadAll returns the file contents, refusing files larger than limit bytes.
// A limit <= 0 disables the check.
func (f File) ReadAll(limit int64) ([]byte, error) {
	if limit > 0 && f.Size > limit {
		return nil, fmt.Errorf("%s is %d bytes: %w", f.Name, f.Size, ErrTooLarge)
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is %d bytes: %w", f.Name, len(data), ErrTooLarge)
	}
	return data, nil
}

// Label is a short human-readable description such as "sketch.png (image/png)".
func (f File) Label() string {
	if f.MediaType == "" {
		return f.Name
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.MediaType)
}
