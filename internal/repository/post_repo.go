package repository

import (
	"context"
	"database/sql"

	"github.com/headless-comments-api/internal/database"
	"github.com/headless-comments-api/internal/models"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT id, title, author_name, author_email, permalink, comment_status, created_at
		FROM posts WHERE id = $1
	`

	var post models.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.AuthorName, &post.AuthorEmail,
		&post.Permalink, &post.CommentStatus, &post.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}
