package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
)

var linkRegex = regexp.MustCompile(`(?i)(<a\s[^>]*href|https?://)`)

// settingsModerationPolicy holds back comments using the discussion settings:
// global moderation, too many links, moderation keywords and first-time authors.
type settingsModerationPolicy struct {
	cfg      config.ModerationConfig
	comments repository.CommentRepository
}

// NewModerationPolicy creates the default policy
func NewModerationPolicy(cfg config.ModerationConfig, comments repository.CommentRepository) ModerationPolicy {
	return &settingsModerationPolicy{cfg: cfg, comments: comments}
}

// Decide returns ApprovalApproved or ApprovalPending
func (p *settingsModerationPolicy) Decide(ctx context.Context, comment *models.Comment) (models.ApprovalState, error) {
	if p.cfg.RequireModeration {
		return models.ApprovalPending, nil
	}

	if p.cfg.MaxLinks > 0 && len(linkRegex.FindAllStringIndex(comment.Content, -1)) >= p.cfg.MaxLinks {
		return models.ApprovalPending, nil
	}

	if matchesModerationKey(p.cfg.Keys, comment) {
		return models.ApprovalPending, nil
	}

	if p.cfg.PreviouslyApproved {
		ok, err := p.comments.HasApprovedComment(ctx, comment.AuthorName, comment.AuthorEmail)
		if err != nil {
			return models.ApprovalPending, fmt.Errorf("check previous approval: %w", err)
		}
		if !ok {
			return models.ApprovalPending, nil
		}
	}

	return models.ApprovalApproved, nil
}

func matchesModerationKey(keys []string, comment *models.Comment) bool {
	fields := []string{
		comment.AuthorName, comment.AuthorEmail, comment.AuthorURL,
		comment.Content, comment.AuthorIP, comment.UserAgent,
	}
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), key) {
				return true
			}
		}
	}
	return false
}
