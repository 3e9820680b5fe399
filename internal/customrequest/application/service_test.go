package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/customrequest/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/logging"
)

type memRepo struct {
	saved []domain.CustomRequest
	err   error
}

func (m *memRepo) Insert(_ context.Context, c domain.CustomRequest) (domain.CustomRequest, error) {
	if m.err != nil {
		return domain.CustomRequest{}, m.err
	}
	c.ID = int64(len(m.saved) + 1)
	c.SubmittedAt = time.Now().UTC()
	m.saved = append(m.saved, c)
	return c, nil
}

func (m *memRepo) List(_ context.Context, limit int) ([]domain.CustomRequest, error) {
	out := []domain.CustomRequest{}
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[i])
	}
	return out, nil
}

func newService(t *testing.T, repo *memRepo) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	files, err := filestore.NewLocal(logging.Discard(), root)
	require.NoError(t, err)
	return NewService(logging.Discard(), repo, files), root
}

func idea() domain.CustomRequest {
	return domain.CustomRequest{Name: " Mina ", PhoneNumber: "9811111111", IdeaDescription: "Lilac tulips with a white ribbon"}
}

func TestSubmitWithImage(t *testing.T) {
	repo := &memRepo{}
	svc, root := newService(t, repo)

	got, err := svc.Submit(context.Background(), idea(), &filestore.Upload{
		Filename: "ref.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mina", got.Name)
	assert.True(t, strings.HasPrefix(got.ReferenceImage, ImageDir+"/"))
	_, err = os.Stat(filepath.Join(root, got.ReferenceImage))
	assert.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newService(t, &memRepo{})

	_, err := svc.Submit(context.Background(), domain.CustomRequest{Name: strings.Repeat("n", 101), PhoneNumber: "1234567890123456"}, nil)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 3)

	_, err = svc.Submit(context.Background(), idea(), &filestore.Upload{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF")})
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "reference_image")
}

func TestSubmitRepositoryFailureRemovesImage(t *testing.T) {
	repo := &memRepo{err: errors.New("db down")}
	svc, root := newService(t, repo)

	_, err := svc.Submit(context.Background(), idea(), &filestore.Upload{Filename: "ref.png", ContentType: "image/png", Body: strings.NewReader("png")})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, ImageDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
