package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/service"
)

// Verify interface compliance
var (
	_ service.SettingsService   = (*MockSettingsService)(nil)
	_ service.SubmissionService = (*MockSubmissionService)(nil)
	_ service.ReaderService     = (*MockReaderService)(nil)
	_ service.SpamClassifier    = (*MockSpamClassifier)(nil)
	_ service.Notifier          = (*MockNotifier)(nil)
	_ service.Renderer          = (*MockRenderer)(nil)
	_ service.ModerationPolicy  = (*MockModerationPolicy)(nil)
)

// MockSettingsService is a mock implementation of SettingsService
type MockSettingsService struct {
	Settings      *models.Settings
	SnapshotError error
	SnapshotCalls int
}

func NewMockSettingsService(apiKey string, origins ...string) *MockSettingsService {
	return &MockSettingsService{
		Settings: &models.Settings{APIKey: apiKey, AllowedOrigins: origins, SpamCheck: true},
	}
}

func (m *MockSettingsService) Snapshot(ctx context.Context) (*models.Settings, error) {
	m.SnapshotCalls++
	if m.SnapshotError != nil {
		return nil, m.SnapshotError
	}
	s := *m.Settings
	return &s, nil
}

func (m *MockSettingsService) Bootstrap(ctx context.Context) error {
	return nil
}

func (m *MockSettingsService) SetAPIKey(ctx context.Context, key string) error {
	m.Settings.APIKey = key
	return nil
}

func (m *MockSettingsService) RotateAPIKey(ctx context.Context) (string, error) {
	m.Settings.APIKey = "rotated-key"
	return m.Settings.APIKey, nil
}

func (m *MockSettingsService) SetAllowedOrigins(ctx context.Context, raw string) ([]string, error) {
	m.Settings.AllowedOrigins = service.ParseOrigins(raw)
	return m.Settings.AllowedOrigins, nil
}

func (m *MockSettingsService) SetSpamCheck(ctx context.Context, enabled bool) error {
	m.Settings.SpamCheck = enabled
	return nil
}

// MockSubmissionService is a mock implementation of SubmissionService
type MockSubmissionService struct {
	SubmitFunc func(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error)
	Requests   []*models.SubmissionRequest
}

func NewMockSubmissionService() *MockSubmissionService {
	return &MockSubmissionService{Requests: make([]*models.SubmissionRequest, 0)}
}

func (m *MockSubmissionService) Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error) {
	m.Requests = append(m.Requests, req)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return &models.SubmissionResult{
		Success:   true,
		CommentID: 1,
		Message:   models.MessageApproved,
		Approved:  true,
	}, nil
}

// MockReaderService is a mock implementation of ReaderService
type MockReaderService struct {
	ListFunc func(ctx context.Context, postID int64, order string) (*models.CommentListing, error)
	Orders   []string
}

func NewMockReaderService() *MockReaderService {
	return &MockReaderService{Orders: make([]string, 0)}
}

func (m *MockReaderService) List(ctx context.Context, postID int64, order string) (*models.CommentListing, error) {
	m.Orders = append(m.Orders, order)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, postID, order)
	}
	return &models.CommentListing{Count: 0, Rendered: "", Order: service.NormalizeOrder(order)}, nil
}

// MockSpamClassifier is a mock implementation of SpamClassifier
type MockSpamClassifier struct {
	Verdict      models.SpamVerdict
	Err          error
	Unconfigured bool
	Requests     []*models.SpamCheckRequest
}

func NewMockSpamClassifier(verdict models.SpamVerdict) *MockSpamClassifier {
	return &MockSpamClassifier{Verdict: verdict}
}

func (m *MockSpamClassifier) Check(ctx context.Context, req *models.SpamCheckRequest) (models.SpamVerdict, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Verdict, nil
}

func (m *MockSpamClassifier) Configured() bool {
	return !m.Unconfigured
}

// MockNotifier records notification calls
type MockNotifier struct {
	mu             sync.Mutex
	AuthorCalls    []int64
	ModeratorCalls []int64
	Err            error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyAuthor(ctx context.Context, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuthorCalls = append(m.AuthorCalls, commentID)
	return m.Err
}

func (m *MockNotifier) NotifyModerator(ctx context.Context, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModeratorCalls = append(m.ModeratorCalls, commentID)
	return m.Err
}

// Total returns the number of notifications of either kind
func (m *MockNotifier) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.AuthorCalls) + len(m.ModeratorCalls)
}

// MockRenderer renders comments as "id:content" lines
type MockRenderer struct {
	Err error
}

func (m *MockRenderer) Render(comments []*models.Comment) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, fmt.Sprintf("%d:%s", c.ID, c.Content))
	}
	return strings.Join(lines, "\n"), nil
}

// MockModerationPolicy returns a fixed decision
type MockModerationPolicy struct {
	State models.ApprovalState
	Err   error
	Calls int
}

func (m *MockModerationPolicy) Decide(ctx context.Context, comment *models.Comment) (models.ApprovalState, error) {
	m.Calls++
	if m.Err != nil {
		return models.ApprovalPending, m.Err
	}
	return m.State, nil
}
