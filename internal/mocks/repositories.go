package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.PostRepository     = (*MockPostRepository)(nil)
	_ repository.CommentRepository  = (*MockCommentRepository)(nil)
	_ repository.SettingsRepository = (*MockSettingsRepository)(nil)
)

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	Posts    map[int64]*models.Post
	GetError error
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[int64]*models.Post)}
}

// AddPost registers a post with the given comment status
func (m *MockPostRepository) AddPost(id int64, status string) *models.Post {
	post := &models.Post{
		ID:            id,
		Title:         "Post",
		AuthorName:    "Admin",
		AuthorEmail:   "admin@example.com",
		Permalink:     "https://blog.example.com/post",
		CommentStatus: status,
	}
	m.Posts[id] = post
	return post
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Posts[id], nil
}

// MetaEntry is a recorded AddMeta call
type MetaEntry struct {
	CommentID int64
	Key       string
	Value     string
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	Comments        map[int64]*models.Comment
	Meta            []MetaEntry
	ApprovedAuthors map[string]bool
	InsertError     error
	MetaError       error
	ListError       error
	InsertCalls     int
	nextID          int64
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments:        make(map[int64]*models.Comment),
		ApprovedAuthors: make(map[string]bool),
		nextID:          1,
	}
}

// AddComment stores a comment directly, bypassing Insert
func (m *MockCommentRepository) AddComment(c *models.Comment) {
	if c.ID == 0 {
		c.ID = m.nextID
	}
	if c.ID >= m.nextID {
		m.nextID = c.ID + 1
	}
	m.Comments[c.ID] = c
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return m.Comments[id], nil
}

func (m *MockCommentRepository) ListApproved(ctx context.Context, postID int64, order models.SortOrder) ([]*models.Comment, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	comments := make([]*models.Comment, 0)
	for _, c := range m.Comments {
		if c.PostID == postID && c.Approved == models.ApprovalApproved {
			comments = append(comments, c)
		}
	}

	sort.Slice(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if order == models.OrderAsc {
			return a.Date.Before(b.Date) || (a.Date.Equal(b.Date) && a.ID < b.ID)
		}
		return a.Date.After(b.Date) || (a.Date.Equal(b.Date) && a.ID > b.ID)
	})
	return comments, nil
}

func (m *MockCommentRepository) Insert(ctx context.Context, comment *models.Comment) (int64, error) {
	m.InsertCalls++
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	stored := *comment
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.nextID++
	m.Comments[stored.ID] = &stored
	return stored.ID, nil
}

func (m *MockCommentRepository) AddMeta(ctx context.Context, commentID int64, key, value string) error {
	if m.MetaError != nil {
		return m.MetaError
	}
	m.Meta = append(m.Meta, MetaEntry{CommentID: commentID, Key: key, Value: value})
	return nil
}

// MetaValue returns the first meta value recorded for a comment and key
func (m *MockCommentRepository) MetaValue(commentID int64, key string) (string, bool) {
	for _, e := range m.Meta {
		if e.CommentID == commentID && e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

func (m *MockCommentRepository) HasApprovedComment(ctx context.Context, authorName, authorEmail string) (bool, error) {
	if m.ApprovedAuthors[authorName+"|"+authorEmail] {
		return true, nil
	}
	for _, c := range m.Comments {
		if c.AuthorName == authorName && c.AuthorEmail == authorEmail && c.Approved == models.ApprovalApproved {
			return true, nil
		}
	}
	return false, nil
}

// MockSettingsRepository is a mock implementation of SettingsRepository
type MockSettingsRepository struct {
	Values   map[string]string
	GetError error
	SetError error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{Values: make(map[string]string)}
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if m.GetError != nil {
		return "", false, m.GetError
	}
	v, ok := m.Values[key]
	return v, ok, nil
}

func (m *MockSettingsRepository) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.Values[k]; ok {
			values[k] = v
		}
	}
	return values, nil
}

func (m *MockSettingsRepository) Set(ctx context.Context, key, value string) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.Values[key] = value
	return nil
}

func (m *MockSettingsRepository) Add(ctx context.Context, key, value string) (bool, error) {
	if m.SetError != nil {
		return false, m.SetError
	}
	if _, ok := m.Values[key]; ok {
		return false, nil
	}
	m.Values[key] = value
	return true, nil
}

// NewMockRepositories bundles fresh mock repositories
func NewMockRepositories() (*repository.Repositories, *MockPostRepository, *MockCommentRepository, *MockSettingsRepository) {
	posts := NewMockPostRepository()
	comments := NewMockCommentRepository()
	settings := NewMockSettingsRepository()
	return &repository.Repositories{Post: posts, Comment: comments, Settings: settings}, posts, comments, settings
}
