package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmehra2102/storefront/internal/customrequest/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/filestore"
)

const (
	ImageDir  = "custom_requests"
	listLimit = 200
)

type Service struct {
	log   *slog.Logger
	repo  Repository
	files FileStore
}

func NewService(log *slog.Logger, repo Repository, files FileStore) *Service {
	return &Service{log: log, repo: repo, files: files}
}

func (s *Service) Submit(ctx context.Context, req domain.CustomRequest, image *filestore.Upload) (domain.CustomRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.IdeaDescription = strings.TrimSpace(req.IdeaDescription)
	if err := req.Validate(); err != nil {
		return domain.CustomRequest{}, err
	}

	if image != nil {
		rel, err := s.files.PutImage(ctx, ImageDir, *image)
		if errors.Is(err, filestore.ErrNotImage) || errors.Is(err, filestore.ErrTooLarge) {
			return domain.CustomRequest{}, apperr.Validation(map[string]string{
				"reference_image": "Upload a valid image of at most 5 MB.",
			})
		}
		if err != nil {
			return domain.CustomRequest{}, fmt.Errorf("store reference image: %w", err)
		}
		req.ReferenceImage = rel
	}

	saved, err := s.repo.Insert(ctx, req)
	if err != nil {
		if req.ReferenceImage != "" {
			if delErr := s.files.Delete(ctx, req.ReferenceImage); delErr != nil {
				s.log.WarnContext(ctx, "discard reference image failed", "path", req.ReferenceImage, "err", delErr)
			}
		}
		return domain.CustomRequest{}, err
	}
	s.log.InfoContext(ctx, "custom request received", "id", saved.ID, "has_image", saved.ReferenceImage != "")
	return saved, nil
}

func (s *Service) List(ctx context.Context) ([]domain.CustomRequest, error) {
	return s.repo.List(ctx, listLimit)
}
