package service_test

import (
	"context"
	"testing"

	"github.com/headless-comments-api/internal/config"
	"github.com/headless-comments-api/internal/mocks"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/service"
)

func TestModerationPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ModerationConfig
		comment models.Comment
		known   bool
		want    models.ApprovalState
	}{
		{
			name:    "clean comment",
			cfg:     config.ModerationConfig{MaxLinks: 2},
			comment: models.Comment{AuthorName: "Jane", AuthorEmail: "jane@example.com", Content: "Nice"},
			want:    models.ApprovalApproved,
		},
		{
			name:    "global moderation",
			cfg:     config.ModerationConfig{RequireModeration: true},
			comment: models.Comment{Content: "Nice"},
			want:    models.ApprovalPending,
		},
		{
			name:    "too many links",
			cfg:     config.ModerationConfig{MaxLinks: 2},
			comment: models.Comment{Content: "see http://a.example and https://b.example"},
			want:    models.ApprovalPending,
		},
		{
			name:    "below link limit",
			cfg:     config.ModerationConfig{MaxLinks: 2},
			comment: models.Comment{Content: "see http://a.example"},
			want:    models.ApprovalApproved,
		},
		{
			name:    "link limit disabled",
			cfg:     config.ModerationConfig{MaxLinks: 0},
			comment: models.Comment{Content: "http://a http://b http://c"},
			want:    models.ApprovalApproved,
		},
		{
			name:    "keyword in content",
			cfg:     config.ModerationConfig{Keys: []string{"casino"}},
			comment: models.Comment{Content: "Best CASINO bonus"},
			want:    models.ApprovalPending,
		},
		{
			name:    "keyword in ip",
			cfg:     config.ModerationConfig{Keys: []string{" ", "198.51.100."}},
			comment: models.Comment{Content: "hi", AuthorIP: "198.51.100.4"},
			want:    models.ApprovalPending,
		},
		{
			name:    "first time author",
			cfg:     config.ModerationConfig{PreviouslyApproved: true},
			comment: models.Comment{AuthorName: "New", AuthorEmail: "new@example.com", Content: "hi"},
			want:    models.ApprovalPending,
		},
		{
			name:    "returning author",
			cfg:     config.ModerationConfig{PreviouslyApproved: true},
			comment: models.Comment{AuthorName: "Jane", AuthorEmail: "jane@example.com", Content: "hi"},
			known:   true,
			want:    models.ApprovalApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := mocks.NewMockCommentRepository()
			if tt.known {
				comments.ApprovedAuthors[tt.comment.AuthorName+"|"+tt.comment.AuthorEmail] = true
			}
			policy := service.NewModerationPolicy(tt.cfg, comments)

			comment := tt.comment
			got, err := policy.Decide(context.Background(), &comment)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
