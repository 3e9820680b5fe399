package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadBytes bounds a single stored file.
const MaxUploadBytes = 5 << 20

var (
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("file is not an image")
)

// Upload is a file received from a form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Local stores files under a root directory and returns paths relative to it,
// which is what the database keeps.
type Local struct {
	log  *slog.Logger
	root string
}

func NewLocal(log *slog.Logger, root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Local{log: log, root: root}, nil
}

// PutImage writes up under dir with a random name and returns its relative path.
func (l *Local) PutImage(ctx context.Context, dir string, up Upload) (string, error) {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return "", ErrNotImage
	}
	name := uuid.NewString() + extension(up)
	rel := path.Join(dir, name)

	full := filepath.Join(l.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(up.Body, MaxUploadBytes+1))
	closeErr := f.Close()
	if err == nil && n > MaxUploadBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	l.log.InfoContext(ctx, "file stored", "path", rel, "bytes", n)
	return rel, nil
}

// Delete removes a stored file. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, rel string) error {
	clean := path.Clean("/" + rel)
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", rel, err)
	}
	return nil
}

func extension(up Upload) string {
	if ext := strings.ToLower(path.Ext(up.Filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(up.ContentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
