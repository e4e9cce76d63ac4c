package service

import (
	"context"
	"fmt"

	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
	"github.com/headless-comments-api/internal/validation"
)

// validatedComment is a submission that passed every check
type validatedComment struct {
	post     *models.Post
	parentID int64
	fields   validation.CommentFields
}

// commentValidator runs the ordered submission checks. The first failing check
// decides the error and nothing after it runs.
type commentValidator struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func newCommentValidator(posts repository.PostRepository, comments repository.CommentRepository) *commentValidator {
	return &commentValidator{posts: posts, comments: comments}
}

// Validate checks, in order: post exists, comments open, parent belongs to the
// post, required fields present, email well formed.
func (v *commentValidator) Validate(ctx context.Context, req *models.SubmissionRequest) (*validatedComment, error) {
	post, err := v.openPost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	parentID := validation.AbsInt(req.Parent)
	if parentID > 0 {
		parent, err := v.comments.GetByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("load parent comment: %w", err)
		}
		if parent == nil || parent.PostID != post.ID {
			return nil, ErrInvalidParent
		}
	}

	fields := validation.SanitizeCommentFields(req.AuthorName, req.AuthorEmail, req.Content)
	errs := validation.ValidateComment(fields)
	if validation.HasCode(errs, validation.CodeRequired) {
		return nil, ErrMissingFields
	}
	if validation.HasCode(errs, validation.CodeInvalidEmail) {
		return nil, ErrInvalidEmail
	}

	return &validatedComment{post: post, parentID: parentID, fields: fields}, nil
}

// openPost loads a post that exists and accepts comments
func (v *commentValidator) openPost(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := v.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !post.CommentsOpen() {
		return nil, ErrCommentsClosed
	}
	return post, nil
}
