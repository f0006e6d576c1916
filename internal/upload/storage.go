package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxFileSize = 5 << 20 // 5MB

var (
	ImageTypes    = []string{"image/jpeg", "image/png", "image/webp"}
	DocumentTypes = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
)

// Storage saves multipart uploads under Root and hands out /uploads/... URLs.
type Storage struct {
	Root string
}

func NewStorage(root string) *Storage {
	return &Storage{Root: root}
}

// Save writes one uploaded file into Root/subdir with a unique name and
// returns its public URL path.
func (s *Storage) Save(fh *multipart.FileHeader, subdir, prefix string, allowedTypes []string) (string, error) {
	if fh.Size > MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes", fh.Size)
	}
	if !typeAllowed(fh.Header.Get("Content-Type"), allowedTypes) {
		return "", fmt.Errorf("unsupported file type: %s", fh.Header.Get("Content-Type"))
	}

	dir := filepath.Join(s.Root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", prefix, uuid.NewString(), strings.ToLower(filepath.Ext(fh.Filename)))

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path.Join("/uploads", subdir, name), nil
}

// Remove deletes a previously saved file by its public URL path. Missing
// files are not an error.
func (s *Storage) Remove(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, "/uploads/")
	if !ok {
		return fmt.Errorf("not an upload path: %s", publicPath)
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func typeAllowed(ct string, allowed []string) bool {
	for _, a := range allowed {
		if ct == a {
			return true
		}
	}
	return false
}
