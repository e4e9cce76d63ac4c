package service

import (
	"context"
	"errors"
	"strings"

	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// readerService is the concrete implementation of ReaderService
type readerService struct {
	comments  repository.CommentRepository
	validator *commentValidator
	renderer  Renderer
	log       zerolog.Logger
}

// List renders the approved comments of an open post
func (s *readerService) List(ctx context.Context, postID int64, order string) (*models.CommentListing, error) {
	if _, err := s.validator.openPost(ctx, postID); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		s.log.Error().Err(err).Int64("post_id", postID).Msg("Failed to load post")
		return nil, ErrLoadFailed
	}

	sortOrder := NormalizeOrder(order)
	comments, err := s.comments.ListApproved(ctx, postID, sortOrder)
	if err != nil {
		s.log.Error().Err(err).Int64("post_id", postID).Msg("Failed to list comments")
		return nil, ErrLoadFailed
	}

	rendered, err := s.renderer.Render(comments)
	if err != nil {
		s.log.Error().Err(err).Int64("post_id", postID).Msg("Failed to render comments")
		return nil, ErrLoadFailed
	}

	return &models.CommentListing{
		Count:    len(comments),
		Rendered: rendered,
		Order:    sortOrder,
	}, nil
}

// NormalizeOrder maps a client order parameter to ASC or DESC. Anything other
// than a case-insensitive "asc" lists newest first.
func NormalizeOrder(order string) models.SortOrder {
	if strings.ToUpper(strings.TrimSpace(order)) == string(models.OrderAsc) {
		return models.OrderAsc
	}
	return models.OrderDesc
}
