package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/mocks"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/service"
	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

type testEnv struct {
	services   *service.Services
	posts      *mocks.MockPostRepository
	comments   *mocks.MockCommentRepository
	settings   *mocks.MockSettingsRepository
	classifier *mocks.MockSpamClassifier
	notifier   *mocks.MockNotifier
	moderation *mocks.MockModerationPolicy
}

func testConfig() *config.Config {
	return &config.Config{
		Site: config.SiteConfig{
			URL:      "https://blog.example.com",
			Name:     "Blog",
			Locale:   "en_US",
			Charset:  "UTF-8",
			Timezone: "UTC",
		},
		Moderation: config.ModerationConfig{MaxLinks: 2},
	}
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	repos, posts, comments, settings := mocks.NewMockRepositories()
	env := &testEnv{
		posts:      posts,
		comments:   comments,
		settings:   settings,
		classifier: mocks.NewMockSpamClassifier(models.VerdictHam),
		notifier:   mocks.NewMockNotifier(),
		moderation: &mocks.MockModerationPolicy{State: models.ApprovalApproved},
	}
	env.services = service.NewServices(repos, service.Dependencies{
		Classifier: env.classifier,
		Notifier:   env.notifier,
		Renderer:   &mocks.MockRenderer{},
		Moderation: env.moderation,
		Now:        func() time.Time { return fixedNow },
	}, testConfig(), zerolog.Nop())

	posts.AddPost(1, models.CommentStatusOpen)
	posts.AddPost(2, models.CommentStatusClosed)
	posts.AddPost(3, models.CommentStatusOpen)
	return env
}

func validRequest() *models.SubmissionRequest {
	return &models.SubmissionRequest{
		PostID:      1,
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@example.com",
		Content:     "Great post!",
		ClientIP:    "203.0.113.9",
		UserAgent:   "test-agent",
		Referrer:    "https://blog.example.com/post",
		SpamCheck:   true,
	}
}

func TestSubmit_Approved(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.services.Submission.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.Success || !result.Approved {
		t.Errorf("Expected approved success, got %+v", result)
	}
	if result.Message != models.MessageApproved {
		t.Errorf("Expected message %q, got %q", models.MessageApproved, result.Message)
	}

	stored := env.comments.Comments[result.CommentID]
	if stored == nil {
		t.Fatal("Comment was not stored")
	}
	if stored.Approved != models.ApprovalApproved {
		t.Errorf("Expected approved state, got %s", stored.Approved)
	}
	if stored.AuthorURL != "" {
		t.Errorf("Author URL should be discarded, got %q", stored.AuthorURL)
	}
	if stored.AuthorIP != "203.0.113.9" || stored.Type != models.CommentTypeComment {
		t.Errorf("Unexpected stored comment: %+v", stored)
	}
	if !stored.DateGMT.Equal(fixedNow) || !stored.Date.Equal(fixedNow) {
		t.Errorf("Expected timestamps at %v, got %v / %v", fixedNow, stored.Date, stored.DateGMT)
	}

	if v, _ := env.comments.MetaValue(result.CommentID, models.MetaAkismetResult); v != "ham" {
		t.Errorf("Expected akismet_result=ham, got %q", v)
	}
	if len(env.notifier.AuthorCalls) != 1 || len(env.notifier.ModeratorCalls) != 0 {
		t.Errorf("Expected one author notification, got author=%v moderator=%v",
			env.notifier.AuthorCalls, env.notifier.ModeratorCalls)
	}
}

func TestSubmit_Pending(t *testing.T) {
	env := newTestEnv(t)
	env.moderation.State = models.ApprovalPending

	result, err := env.services.Submission.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Approved || result.Message != models.MessagePending {
		t.Errorf("Expected pending result, got %+v", result)
	}
	if env.comments.Comments[result.CommentID].Approved != models.ApprovalPending {
		t.Error("Expected stored comment to be pending")
	}
	if len(env.notifier.ModeratorCalls) != 1 || len(env.notifier.AuthorCalls) != 0 {
		t.Errorf("Expected one moderator notification, got author=%v moderator=%v",
			env.notifier.AuthorCalls, env.notifier.ModeratorCalls)
	}
}

func TestSubmit_Spam(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.Verdict = models.VerdictSpam

	_, err := env.services.Submission.Submit(context.Background(), validRequest())
	if !errors.Is(err, service.ErrSpamDetected) {
		t.Fatalf("Expected ErrSpamDetected, got %v", err)
	}

	if len(env.comments.Comments) != 1 {
		t.Fatalf("Spam comment should be stored for audit, got %d comments", len(env.comments.Comments))
	}
	for id, c := range env.comments.Comments {
		if c.Approved != models.ApprovalSpam {
			t.Errorf("Expected spam state, got %s", c.Approved)
		}
		if v, _ := env.comments.MetaValue(id, models.MetaAkismetResult); v != "spam" {
			t.Errorf("Expected akismet_result=spam, got %q", v)
		}
	}
	if env.notifier.Total() != 0 {
		t.Errorf("Spam must not notify anyone, got %d notifications", env.notifier.Total())
	}
	if env.moderation.Calls != 0 {
		t.Error("Moderation should not run for spam")
	}
}

func TestSubmit_ClassifierUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.classifier.Err = errors.New("timeout")

	result, err := env.services.Submission.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Classifier failure must not block submission: %v", err)
	}
	if v, _ := env.comments.MetaValue(result.CommentID, models.MetaAkismetResult); v != "ham" {
		t.Errorf("Expected akismet_result=ham, got %q", v)
	}
	if v, ok := env.comments.MetaValue(result.CommentID, models.MetaAkismetError); !ok || v != "timeout" {
		t.Errorf("Expected akismet_error=timeout, got %q", v)
	}
	if env.notifier.Total() != 1 {
		t.Errorf("Expected exactly one notification, got %d", env.notifier.Total())
	}
}

func TestSubmit_ClassifierInactive(t *testing.T) {
	tests := []struct {
		name         string
		spamCheck    bool
		unconfigured bool
	}{
		{name: "setting off", spamCheck: false},
		{name: "no credential", spamCheck: true, unconfigured: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.classifier.Verdict = models.VerdictSpam
			env.classifier.Unconfigured = tt.unconfigured

			req := validRequest()
			req.SpamCheck = tt.spamCheck
			result, err := env.services.Submission.Submit(context.Background(), req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(env.classifier.Requests) != 0 {
				t.Error("Classifier should not be called")
			}
			if _, ok := env.comments.MetaValue(result.CommentID, models.MetaAkismetResult); ok {
				t.Error("No classifier meta expected when checking is inactive")
			}
		})
	}
}

func TestSubmit_ClassifierRequest(t *testing.T) {
	env := newTestEnv(t)
	env.comments.AddComment(&models.Comment{ID: 10, PostID: 1, Approved: models.ApprovalApproved})

	req := validRequest()
	req.Parent = "10"
	if _, err := env.services.Submission.Submit(context.Background(), req); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(env.classifier.Requests) != 1 {
		t.Fatalf("Expected one classifier call, got %d", len(env.classifier.Requests))
	}
	got := env.classifier.Requests[0]
	if got.Blog != "https://blog.example.com" || got.Permalink != "https://blog.example.com/post" {
		t.Errorf("Unexpected site fields: %+v", got)
	}
	if got.UserIP != "203.0.113.9" || got.Referrer != req.Referrer || got.ParentID != 10 {
		t.Errorf("Unexpected request fields: %+v", got)
	}
	if got.AuthorURL != "" || got.BlogLang != "en_US" || got.BlogCharset != "UTF-8" {
		t.Errorf("Unexpected author/site fields: %+v", got)
	}
}

func TestSubmit_ValidationOrder(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*models.SubmissionRequest)
		wantErr *service.APIError
	}{
		{
			name:    "unknown post",
			modify:  func(r *models.SubmissionRequest) { r.PostID = 99 },
			wantErr: service.ErrPostNotFound,
		},
		{
			name: "closed post wins over missing fields",
			modify: func(r *models.SubmissionRequest) {
				r.PostID = 2
				r.AuthorName = ""
			},
			wantErr: service.ErrCommentsClosed,
		},
		{
			name:    "unknown parent",
			modify:  func(r *models.SubmissionRequest) { r.Parent = "500" },
			wantErr: service.ErrInvalidParent,
		},
		{
			name:    "parent on another post",
			modify:  func(r *models.SubmissionRequest) { r.Parent = "20" },
			wantErr: service.ErrInvalidParent,
		},
		{
			name: "invalid parent wins over bad email",
			modify: func(r *models.SubmissionRequest) {
				r.Parent = "500"
				r.AuthorEmail = "nope"
			},
			wantErr: service.ErrInvalidParent,
		},
		{
			name:    "markup only name",
			modify:  func(r *models.SubmissionRequest) { r.AuthorName = "<b></b>" },
			wantErr: service.ErrMissingFields,
		},
		{
			name:    "missing content",
			modify:  func(r *models.SubmissionRequest) { r.Content = "   " },
			wantErr: service.ErrMissingFields,
		},
		{
			name:    "invalid email",
			modify:  func(r *models.SubmissionRequest) { r.AuthorEmail = "not-an-email" },
			wantErr: service.ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.comments.AddComment(&models.Comment{ID: 20, PostID: 3, Approved: models.ApprovalApproved})

			req := validRequest()
			tt.modify(req)
			_, err := env.services.Submission.Submit(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if env.comments.InsertCalls != 0 {
				t.Error("Rejected submission must not be stored")
			}
			if len(env.classifier.Requests) != 0 || env.notifier.Total() != 0 {
				t.Error("Rejected submission must have no side effects")
			}
		})
	}
}

func TestSubmit_NegativeParentIsAbsolute(t *testing.T) {
	env := newTestEnv(t)
	env.comments.AddComment(&models.Comment{ID: 7, PostID: 1, Approved: models.ApprovalApproved})

	req := validRequest()
	req.Parent = "-7"
	result, err := env.services.Submission.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Parent != 7 {
		t.Errorf("Expected parent 7, got %d", result.Parent)
	}
}

func TestSubmit_InsertFailure(t *testing.T) {
	env := newTestEnv(t)
	env.comments.InsertError = errors.New("disk full")

	_, err := env.services.Submission.Submit(context.Background(), validRequest())
	if !errors.Is(err, service.ErrCommentFailed) {
		t.Fatalf("Expected ErrCommentFailed, got %v", err)
	}
	if env.notifier.Total() != 0 {
		t.Error("Failed insert must not notify")
	}
}

func TestSubmit_StoreLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	env.posts.GetError = errors.New("connection refused")

	_, err := env.services.Submission.Submit(context.Background(), validRequest())
	if !errors.Is(err, service.ErrCommentFailed) {
		t.Fatalf("Expected ErrCommentFailed, got %v", err)
	}
}

func TestSubmit_SideEffectFailuresIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.comments.MetaError = errors.New("meta failed")
	env.notifier.Err = errors.New("queue full")

	result, err := env.services.Submission.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Meta and notification failures must not fail the request: %v", err)
	}
	if !result.Success {
		t.Error("Expected success")
	}
}

func TestSubmit_ModerationErrorHoldsComment(t *testing.T) {
	env := newTestEnv(t)
	env.moderation.Err = errors.New("lookup failed")

	result, err := env.services.Submission.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Approved {
		t.Error("Comment should be held when moderation fails")
	}
	if len(env.notifier.ModeratorCalls) != 1 {
		t.Error("Expected moderator notification")
	}
}

func TestSubmit_SanitizesFields(t *testing.T) {
	env := newTestEnv(t)

	req := validRequest()
	req.AuthorName = "  <script>alert(1)</script>Jane  "
	req.AuthorEmail = " jane(at)@example.com "
	req.Content = "Line one\n<b>Line</b> two"
	req.UserAgent = strings.Repeat("a", 300)

	result, err := env.services.Submission.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stored := env.comments.Comments[result.CommentID]
	if stored.AuthorName != "Jane" {
		t.Errorf("Expected sanitized name, got %q", stored.AuthorName)
	}
	if stored.AuthorEmail != "janeat@example.com" {
		t.Errorf("Expected sanitized email, got %q", stored.AuthorEmail)
	}
	if stored.Content != "Line one\nLine two" {
		t.Errorf("Expected sanitized content, got %q", stored.Content)
	}
	if len(stored.UserAgent) != 254 {
		t.Errorf("Expected user agent truncated to 254, got %d", len(stored.UserAgent))
	}
}

func TestSubmit_ThenList(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.services.Submission.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	listing, err := env.services.Reader.List(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if listing.Count != 1 {
		t.Fatalf("Expected 1 comment, got %d", listing.Count)
	}
	if !strings.Contains(listing.Rendered, "Great post!") {
		t.Errorf("Expected submitted content in rendering, got %q", listing.Rendered)
	}
}

func TestList(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.comments.AddComment(&models.Comment{ID: 1, PostID: 1, Content: "first", Approved: models.ApprovalApproved, Date: base})
	env.comments.AddComment(&models.Comment{ID: 2, PostID: 1, Content: "third", Approved: models.ApprovalApproved, Date: base.Add(2 * time.Hour)})
	env.comments.AddComment(&models.Comment{ID: 3, PostID: 1, Content: "second", Approved: models.ApprovalApproved, Date: base.Add(time.Hour)})
	env.comments.AddComment(&models.Comment{ID: 4, PostID: 1, Content: "held", Approved: models.ApprovalPending, Date: base})
	env.comments.AddComment(&models.Comment{ID: 5, PostID: 1, Content: "junk", Approved: models.ApprovalSpam, Date: base})
	env.comments.AddComment(&models.Comment{ID: 6, PostID: 3, Content: "other", Approved: models.ApprovalApproved, Date: base})

	tests := []struct {
		order     string
		wantOrder models.SortOrder
		want      string
	}{
		{"ASC", models.OrderAsc, "1:first\n3:second\n2:third"},
		{" asc ", models.OrderAsc, "1:first\n3:second\n2:third"},
		{"desc", models.OrderDesc, "2:third\n3:second\n1:first"},
		{"", models.OrderDesc, "2:third\n3:second\n1:first"},
		{"sideways", models.OrderDesc, "2:third\n3:second\n1:first"},
	}

	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			listing, err := env.services.Reader.List(context.Background(), 1, tt.order)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if listing.Count != 3 {
				t.Errorf("Expected 3 approved comments, got %d", listing.Count)
			}
			if listing.Order != tt.wantOrder {
				t.Errorf("Expected order %s, got %s", tt.wantOrder, listing.Order)
			}
			if listing.Rendered != tt.want {
				t.Errorf("Expected rendering %q, got %q", tt.want, listing.Rendered)
			}
		})
	}
}

func TestList_Errors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.services.Reader.List(context.Background(), 99, "ASC"); !errors.Is(err, service.ErrPostNotFound) {
		t.Errorf("Expected ErrPostNotFound, got %v", err)
	}
	if _, err := env.services.Reader.List(context.Background(), 2, "ASC"); !errors.Is(err, service.ErrCommentsClosed) {
		t.Errorf("Expected ErrCommentsClosed, got %v", err)
	}

	env.comments.ListError = errors.New("query failed")
	if _, err := env.services.Reader.List(context.Background(), 1, "ASC"); !errors.Is(err, service.ErrLoadFailed) {
		t.Errorf("Expected ErrLoadFailed, got %v", err)
	}
}

func TestList_EmptyPost(t *testing.T) {
	env := newTestEnv(t)

	listing, err := env.services.Reader.List(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if listing.Count != 0 || listing.Rendered != "" || listing.Order != models.OrderDesc {
		t.Errorf("Unexpected empty listing: %+v", listing)
	}
}

func BenchmarkSubmit(b *testing.B) {
	env := newTestEnv(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.services.Submission.Submit(ctx, validRequest()); err != nil {
			b.Fatal(err)
		}
	}
}
