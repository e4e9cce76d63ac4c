package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/headless-comments-api/internal/models"
	"github.com/headless-comments-api/internal/service"
	"github.com/rs/zerolog"
)

// CommentHandler handles the comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

// ListComments handles GET /posts/:post_id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	listing, err := h.services.Reader.List(c.Request.Context(), postIDParam(c), c.Query("order"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// CreateComment handles POST /posts/:post_id/comments
// Accepts form-encoded, multipart or JSON bodies
func (h *CommentHandler) CreateComment(c *gin.Context) {
	fields := bodyFields(c)

	req := &models.SubmissionRequest{
		PostID:      postIDParam(c),
		AuthorName:  fields["author_name"],
		AuthorEmail: fields["author_email"],
		Content:     fields["content"],
		Parent:      fields["parent"],
		ClientIP:    clientIP(c.Request),
		UserAgent:   c.Request.UserAgent(),
		Referrer:    c.Request.Referer(),
	}
	if snap := snapshot(c); snap != nil {
		req.SpamCheck = snap.SpamCheck
	}

	result, err := h.services.Submission.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// postIDParam parses the route id; anything unparseable becomes 0, which matches no post
func postIDParam(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
