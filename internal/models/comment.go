package models

import (
	"time"
)

// ApprovalState is the moderation state of a stored comment
type ApprovalState string

const (
	ApprovalApproved ApprovalState = "approved"
	ApprovalPending  ApprovalState = "pending"
	ApprovalSpam     ApprovalState = "spam"
)

// ValidApprovalStates lists the states a comment row may hold
var ValidApprovalStates = map[ApprovalState]bool{
	ApprovalApproved: true,
	ApprovalPending:  true,
	ApprovalSpam:     true,
}

// CommentTypeComment is the only comment type this API creates
const CommentTypeComment = "comment"

// Comment represents a comment on a post. Before insertion ID is zero.
type Comment struct {
	ID          int64         `json:"id" db:"id"`
	PostID      int64         `json:"post_id" db:"post_id"`
	ParentID    int64         `json:"parent_id" db:"parent_id"`
	AuthorName  string        `json:"author_name" db:"author_name"`
	AuthorEmail string        `json:"-" db:"author_email"`
	AuthorURL   string        `json:"author_url" db:"author_url"`
	AuthorIP    string        `json:"-" db:"author_ip"`
	UserAgent   string        `json:"-" db:"user_agent"`
	Content     string        `json:"content" db:"content"`
	Type        string        `json:"type" db:"comment_type"`
	Approved    ApprovalState `json:"approved" db:"approved"`
	Date        time.Time     `json:"date" db:"comment_date"`
	DateGMT     time.Time     `json:"date_gmt" db:"comment_date_gmt"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Comment meta keys written by the submission pipeline
const (
	MetaAkismetResult = "akismet_result"
	MetaAkismetError  = "akismet_error"
)

// SortOrder is the listing order for comments by date
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// SubmissionRequest carries the raw fields of a POST comment request
type SubmissionRequest struct {
	PostID      int64
	AuthorName  string
	AuthorEmail string
	Content     string
	Parent      string
	ClientIP    string
	UserAgent   string
	Referrer    string
	// SpamCheck is the per-request value of the spam checking setting
	SpamCheck bool
}

// SubmissionResult is returned for an accepted (non-spam) comment
type SubmissionResult struct {
	Success   bool   `json:"success"`
	CommentID int64  `json:"comment_id"`
	Message   string `json:"message"`
	Approved  bool   `json:"approved"`
	Parent    int64  `json:"parent"`
}

// Submission response messages
const (
	MessageApproved = "Comment submitted successfully!"
	MessagePending  = "Comment submitted successfully! It is awaiting moderation."
)

// CommentListing is the GET response body
type CommentListing struct {
	Count    int       `json:"count"`
	Rendered string    `json:"rendered"`
	Order    SortOrder `json:"order"`
}
