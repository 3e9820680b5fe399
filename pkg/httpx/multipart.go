package httpx

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/filestore"
)

const maxFormMemory = 8 << 20

// ParseForm accepts both multipart and urlencoded bodies.
func ParseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUserInput, "invalid form", err)
	}
	return nil
}

// FormImage returns the uploaded file in field, or nil when none was sent.
// The returned func closes the file and must be called once the upload has
// been consumed.
func FormImage(r *http.Request, field string) (*filestore.Upload, func(), error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperr.Wrap(apperr.KindUserInput, "invalid upload", err)
	}

	ct := hdr.Header.Get("Content-Type")
	var body io.Reader = f
	if ct == "" || ct == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		ct = http.DetectContentType(head[:n])
		body = io.MultiReader(bytes.NewReader(head[:n]), f)
	}
	return &filestore.Upload{Filename: hdr.Filename, ContentType: ct, Body: body}, func() { _ = f.Close() }, nil
}
