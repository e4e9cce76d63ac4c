package models

import (
	"time"
)

// Comment statuses of a post
const (
	CommentStatusOpen   = "open"
	CommentStatusClosed = "closed"
)

// Post represents a blog post comments are attached to
type Post struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	AuthorName    string    `json:"author_name" db:"author_name"`
	AuthorEmail   string    `json:"-" db:"author_email"`
	Permalink     string    `json:"permalink" db:"permalink"`
	CommentStatus string    `json:"comment_status" db:"comment_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CommentsOpen reports whether new comments are accepted
func (p *Post) CommentsOpen() bool {
	return p.CommentStatus == CommentStatusOpen
}
