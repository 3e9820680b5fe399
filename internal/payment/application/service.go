package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/filestore"
)

// ScreenshotDir is where payment proofs are kept, relative to the media root.
const ScreenshotDir = "payment_proofs"

type Service struct {
	log   *slog.Logger
	files FileStore
}

func NewService(log *slog.Logger, files FileStore) *Service {
	return &Service{log: log, files: files}
}

// StoreProof keeps the screenshot, if any, and returns its path. QR payments
// without a screenshot are refused.
func (s *Service) StoreProof(ctx context.Context, method domain.Method, proof *filestore.Upload) (string, error) {
	if proof == nil {
		if method.RequiresProof() {
			return "", domain.ErrProofRequired
		}
		return "", nil
	}

	rel, err := s.files.PutImage(ctx, ScreenshotDir, *proof)
	if errors.Is(err, filestore.ErrNotImage) || errors.Is(err, filestore.ErrTooLarge) {
		return "", apperr.Wrap(apperr.KindUserInput, domain.ErrInvalidProof.Message, err)
	}
	if err != nil {
		return "", fmt.Errorf("store payment screenshot: %w", err)
	}
	return rel, nil
}

// Discard removes a proof whose order was never created.
func (s *Service) Discard(ctx context.Context, rel string) {
	if rel == "" {
		return
	}
	if err := s.files.Delete(ctx, rel); err != nil {
		s.log.WarnContext(ctx, "discard payment screenshot failed", "path", rel, "err", err)
	}
}
