package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/headless-comments-api/internal/database"
	"github.com/headless-comments-api/internal/models"
)

const commentColumns = `id, post_id, parent_id, author_name, author_email, author_url, author_ip,
	user_agent, content, comment_type, approved, comment_date, comment_date_gmt, created_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Insert stores a new comment and returns the assigned ID
func (r *commentRepo) Insert(ctx context.Context, comment *models.Comment) (int64, error) {
	query := `
		INSERT INTO comments (post_id, parent_id, author_name, author_email, author_url, author_ip,
			user_agent, content, comment_type, approved, comment_date, comment_date_gmt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		comment.PostID, comment.ParentID, comment.AuthorName, comment.AuthorEmail,
		comment.AuthorURL, comment.AuthorIP, comment.UserAgent, comment.Content,
		comment.Type, string(comment.Approved), comment.Date, comment.DateGMT,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}

	return id, nil
}

// AddMeta attaches a key/value pair to a comment
func (r *commentRepo) AddMeta(ctx context.Context, commentID int64, key, value string) error {
	query := `INSERT INTO comment_meta (comment_id, meta_key, meta_value) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, commentID, key, value); err != nil {
		return fmt.Errorf("add comment meta %s: %w", key, err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// ListApproved returns the approved comments of a post ordered by comment date
func (r *commentRepo) ListApproved(ctx context.Context, postID int64, order models.SortOrder) ([]*models.Comment, error) {
	// order is interpolated, so only the two known values are accepted
	direction := "DESC"
	if order == models.OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM comments
		WHERE post_id = $1 AND approved = $2
		ORDER BY comment_date %s, id %s`, commentColumns, direction, direction)

	rows, err := r.db.QueryContext(ctx, query, postID, string(models.ApprovalApproved))
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// HasApprovedComment reports whether the author already has an approved comment
func (r *commentRepo) HasApprovedComment(ctx context.Context, authorName, authorEmail string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM comments WHERE author_name = $1 AND author_email = $2 AND approved = $3)",
		authorName, authorEmail, string(models.ApprovalApproved),
	).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var approved string
	err := row.Scan(
		&comment.ID, &comment.PostID, &comment.ParentID, &comment.AuthorName,
		&comment.AuthorEmail, &comment.AuthorURL, &comment.AuthorIP, &comment.UserAgent,
		&comment.Content, &comment.Type, &approved, &comment.Date, &comment.DateGMT,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	comment.Approved = models.ApprovalState(approved)
	return &comment, nil
}
