package repository

import (
	"context"

	"github.com/headless-comments-api/internal/database"
	"github.com/headless-comments-api/internal/models"
)

// PostRepository defines the interface for post lookups. Posts are owned by the
// content platform; this service only reads them.
type PostRepository interface {
	// GetByID returns nil, nil when the post does not exist
	GetByID(ctx context.Context, id int64) (*models.Post, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// GetByID returns nil, nil when the comment does not exist
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListApproved(ctx context.Context, postID int64, order models.SortOrder) ([]*models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) (int64, error)
	AddMeta(ctx context.Context, commentID int64, key, value string) error
	HasApprovedComment(ctx context.Context, authorName, authorEmail string) (bool, error)
}

// SettingsRepository defines the interface for the key/value settings store
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	// Add stores value only when key is absent and reports whether it did
	Add(ctx context.Context, key, value string) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post     PostRepository
	Comment  CommentRepository
	Settings SettingsRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Post:     NewPostRepo(db),
		Comment:  NewCommentRepo(db),
		Settings: NewSettingsRepo(db),
	}
}
