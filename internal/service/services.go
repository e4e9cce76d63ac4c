package service

import (
	"context"
	"time"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/metrics"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// SettingsService defines the interface for runtime settings
type SettingsService interface {
	Snapshot(ctx context.Context) (*models.Settings, error)
	Bootstrap(ctx context.Context) error
	SetAPIKey(ctx context.Context, key string) error
	RotateAPIKey(ctx context.Context) (string, error)
	SetAllowedOrigins(ctx context.Context, raw string) ([]string, error)
	SetSpamCheck(ctx context.Context, enabled bool) error
}

// SubmissionService defines the interface for accepting comments
type SubmissionService interface {
	Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error)
}

// ReaderService defines the interface for listing comments
type ReaderService interface {
	List(ctx context.Context, postID int64, order string) (*models.CommentListing, error)
}

// SpamClassifier is an external spam verdict provider
type SpamClassifier interface {
	Check(ctx context.Context, req *models.SpamCheckRequest) (models.SpamVerdict, error)
	Configured() bool
}

// ModerationPolicy decides whether a non-spam comment is published immediately
type ModerationPolicy interface {
	Decide(ctx context.Context, comment *models.Comment) (models.ApprovalState, error)
}

// Notifier tells people about a stored comment
type Notifier interface {
	NotifyAuthor(ctx context.Context, commentID int64) error
	NotifyModerator(ctx context.Context, commentID int64) error
}

// Renderer turns an ordered comment list into HTML
type Renderer interface {
	Render(comments []*models.Comment) (string, error)
}

// Dependencies are the collaborators wired in by main. Classifier and Notifier may
// be nil; a nil Moderation uses the settings-driven default policy.
type Dependencies struct {
	Classifier SpamClassifier
	Notifier   Notifier
	Renderer   Renderer
	Moderation ModerationPolicy
	Metrics    *metrics.Metrics
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Services holds all service interfaces
type Services struct {
	Settings   SettingsService
	Submission SubmissionService
	Reader     ReaderService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Dependencies, cfg *config.Config, log zerolog.Logger) *Services {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	moderation := deps.Moderation
	if moderation == nil {
		moderation = NewModerationPolicy(cfg.Moderation, repos.Comment)
	}

	validator := newCommentValidator(repos.Post, repos.Comment)

	return &Services{
		Settings: newSettingsService(repos.Settings, cfg.Site, log),
		Submission: &submissionService{
			comments:   repos.Comment,
			validator:  validator,
			spam:       newSpamAdapter(deps.Classifier, cfg.Site, deps.Metrics, log),
			moderation: moderation,
			notifier:   deps.Notifier,
			metrics:    deps.Metrics,
			loc:        cfg.Site.Location(),
			now:        now,
			log:        log.With().Str("service", "submission").Logger(),
		},
		Reader: &readerService{
			comments:  repos.Comment,
			validator: validator,
			renderer:  deps.Renderer,
			log:       log.With().Str("service", "reader").Logger(),
		},
	}
}
