package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

const maxUserAgentLength = 254

// submissionService is the concrete implementation of SubmissionService
type submissionService struct {
	comments   repository.CommentRepository
	validator  *commentValidator
	spam       *spamAdapter
	moderation ModerationPolicy
	notifier   Notifier
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

// Submit runs a comment through validation, spam classification, moderation,
// persistence and notification. Every call is a single attempt.
func (s *submissionService) Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error) {
	valid, err := s.validator.Validate(ctx, req)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			s.log.Error().Err(err).Int64("post_id", req.PostID).Msg("Validation lookup failed")
			s.metrics.IncSubmission("failed")
			return nil, ErrCommentFailed
		}
		s.metrics.IncSubmission("rejected")
		return nil, apiErr
	}

	draft := s.buildDraft(req, valid)

	outcome, spamErr := s.spam.Classify(ctx, req.SpamCheck, draft, valid.post, req.Referrer)
	if outcome == models.SpamSpam {
		return nil, s.storeSpam(ctx, draft)
	}

	state, err := s.moderation.Decide(ctx, draft)
	if err != nil {
		s.log.Warn().Err(err).Int64("post_id", draft.PostID).Msg("Moderation policy failed, holding comment")
		state = models.ApprovalPending
	}
	if state != models.ApprovalApproved {
		state = models.ApprovalPending
	}
	draft.Approved = state

	id, err := s.comments.Insert(ctx, draft)
	if err != nil {
		s.log.Error().Err(err).Int64("post_id", draft.PostID).Msg("Failed to insert comment")
		s.metrics.IncSubmission("failed")
		return nil, ErrCommentFailed
	}

	if outcome == models.SpamHam || outcome == models.SpamUnavailable {
		s.addMeta(ctx, id, models.MetaAkismetResult, string(models.VerdictHam))
		if outcome == models.SpamUnavailable && spamErr != nil {
			s.addMeta(ctx, id, models.MetaAkismetError, spamErr.Error())
		}
	}

	approved := state == models.ApprovalApproved
	s.notify(ctx, id, approved)
	s.metrics.IncSubmission(string(state))

	s.log.Info().
		Int64("comment_id", id).
		Int64("post_id", draft.PostID).
		Str("approved", string(state)).
		Str("spam_check", string(outcome)).
		Msg("Comment submitted")

	result := &models.SubmissionResult{
		Success:   true,
		CommentID: id,
		Message:   models.MessagePending,
		Approved:  approved,
		Parent:    draft.ParentID,
	}
	if approved {
		result.Message = models.MessageApproved
	}
	return result, nil
}

func (s *submissionService) buildDraft(req *models.SubmissionRequest, valid *validatedComment) *models.Comment {
	now := s.now()
	return &models.Comment{
		PostID:      valid.post.ID,
		ParentID:    valid.parentID,
		AuthorName:  valid.fields.AuthorName,
		AuthorEmail: valid.fields.AuthorEmail,
		AuthorIP:    req.ClientIP,
		UserAgent:   truncate(req.UserAgent, maxUserAgentLength),
		Content:     valid.fields.Content,
		Type:        models.CommentTypeComment,
		Date:        now.In(s.loc),
		DateGMT:     now.UTC(),
	}
}

// storeSpam keeps a spam comment for audit and returns the rejection
func (s *submissionService) storeSpam(ctx context.Context, draft *models.Comment) error {
	draft.Approved = models.ApprovalSpam
	id, err := s.comments.Insert(ctx, draft)
	if err != nil {
		s.log.Error().Err(err).Int64("post_id", draft.PostID).Msg("Failed to insert spam comment")
		s.metrics.IncSubmission("failed")
		return ErrCommentFailed
	}
	s.addMeta(ctx, id, models.MetaAkismetResult, string(models.VerdictSpam))
	s.metrics.IncSubmission(string(models.ApprovalSpam))
	s.log.Info().Int64("comment_id", id).Int64("post_id", draft.PostID).Msg("Comment rejected as spam")
	return ErrSpamDetected
}

func (s *submissionService) addMeta(ctx context.Context, id int64, key, value string) {
	if err := s.comments.AddMeta(ctx, id, key, value); err != nil {
		s.log.Warn().Err(err).Int64("comment_id", id).Str("key", key).Msg("Failed to tag comment")
	}
}

func (s *submissionService) notify(ctx context.Context, id int64, approved bool) {
	if s.notifier == nil {
		return
	}

	var err error
	if approved {
		err = s.notifier.NotifyAuthor(ctx, id)
	} else {
		err = s.notifier.NotifyModerator(ctx, id)
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("comment_id", id).Bool("approved", approved).Msg("Failed to queue notification")
	}
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
