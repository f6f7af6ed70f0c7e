package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Store saves attachment binaries and hands back a stable URI. The sync core
// only ever references these URIs; it never reads the content back.
type Store interface {
	Save(r io.Reader, originalName string) (uri string, err error)
	Remove(uri string) error
}

// Local stores attachments on the local filesystem under <dir>/reports and
// serves them under /uploads.
type Local struct {
	dir string
}

// NewLocal creates a local attachment store rooted at dir
func NewLocal(dir string) (*Local, error) {
	reportDir := filepath.Join(dir, "reports")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Dir returns the root directory served under /uploads
func (l *Local) Dir() string {
	return l.dir
}

// Save writes the content to disk and returns its /uploads URI. File names
// are prefixed with a timestamp so repeated uploads of the same original
// name never collide.
func (l *Local) Save(r io.Reader, originalName string) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(originalName))
	full := filepath.Join(l.dir, "reports", name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	return path.Join("/uploads/reports", name), nil
}

// Remove deletes a previously stored attachment. Unknown URIs are ignored.
func (l *Local) Remove(uri string) error {
	rel, ok := strings.CutPrefix(uri, "/uploads/")
	if !ok {
		return nil
	}
	full := filepath.Join(l.dir, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sanitizeName strips path separators and oddities from a client-supplied
// file name
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == ".." {
		name = "attachment"
	}
	return name
}
