// Package render turns approved comments into the threaded HTML list served to clients.
package render

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/headless-comments-api/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	defaultMaxDepth   = 5
	defaultAvatarSize = 48
	dateLayout        = "January 2, 2006 at 3:04 pm"
)

const commentTemplate = `{{define "comment"}}<li id="comment-{{.ID}}" class="comment depth-{{.Depth}}{{if .Children}} parent{{end}}">
<article id="div-comment-{{.ID}}" class="comment-body">
<footer class="comment-meta">
<div class="comment-author vcard">{{if .Avatar}}<img alt="" src="{{.Avatar}}" class="avatar avatar-{{.AvatarSize}} photo" height="{{.AvatarSize}}" width="{{.AvatarSize}}" loading="lazy"> {{end}}<b class="fn">{{.Author}}</b> <span class="says">says:</span></div>
<div class="comment-metadata"><a href="#comment-{{.ID}}"><time datetime="{{.DateGMT}}">{{.Date}}</time></a></div>
</footer>
<div class="comment-content">{{.Content}}</div>
<div class="reply"><a rel="nofollow" class="comment-reply-link" href="#comment-{{.ID}}" data-commentid="{{.ID}}" data-postid="{{.PostID}}" aria-label="Reply to {{.Author}}">Reply</a></div>
</article>
{{if .Children}}<ol class="children">
{{range .Children}}{{template "comment" .}}{{end}}</ol>
{{end}}</li>
{{end}}{{define "list"}}<ol class="comment-list">
{{range .}}{{template "comment" .}}{{end}}</ol>
{{end}}`

// Options tunes the rendered output
type Options struct {
	// MaxDepth is the deepest nesting level; deeper replies are listed flat at it
	MaxDepth int
	// AvatarSize is the gravatar size in pixels; negative disables avatars
	AvatarSize int
}

// HTMLRenderer renders comments as nested <ol>/<li> markup
type HTMLRenderer struct {
	tmpl       *template.Template
	md         goldmark.Markdown
	policy     *bluemonday.Policy
	maxDepth   int
	avatarSize int
}

type node struct {
	ID         int64
	PostID     int64
	Depth      int
	Author     string
	Avatar     string
	AvatarSize int
	Date       string
	DateGMT    string
	Content    template.HTML
	Children   []*node
}

// New creates a renderer
func New(opts Options) *HTMLRenderer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if opts.AvatarSize == 0 {
		opts.AvatarSize = defaultAvatarSize
	}

	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoFollowOnLinks(true)

	return &HTMLRenderer{
		tmpl: template.Must(template.New("comments").Parse(commentTemplate)),
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy:     policy,
		maxDepth:   opts.MaxDepth,
		avatarSize: opts.AvatarSize,
	}
}

// Render produces the HTML for comments in the given order. Replies are nested
// under their parent; replies whose parent is not in the list are shown at the top level.
func (r *HTMLRenderer) Render(comments []*models.Comment) (string, error) {
	if len(comments) == 0 {
		return "", nil
	}

	present := make(map[int64]bool, len(comments))
	for _, c := range comments {
		present[c.ID] = true
	}

	children := make(map[int64][]*models.Comment)
	roots := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.ParentID > 0 && c.ParentID != c.ID && present[c.ParentID] {
			children[c.ParentID] = append(children[c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	t := &tree{r: r, children: children, seen: make(map[int64]bool, len(comments))}
	nodes := t.build(roots, 1)

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "list", nodes); err != nil {
		return "", fmt.Errorf("render comments: %w", err)
	}
	return buf.String(), nil
}

// RenderContent converts a comment body to sanitized HTML
func (r *HTMLRenderer) RenderContent(content string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

type tree struct {
	r        *HTMLRenderer
	children map[int64][]*models.Comment
	seen     map[int64]bool
}

func (t *tree) build(list []*models.Comment, depth int) []*node {
	out := make([]*node, 0, len(list))
	for _, c := range list {
		if t.seen[c.ID] {
			continue
		}
		t.seen[c.ID] = true

		n := t.r.node(c, depth)
		out = append(out, n)
		if depth < t.r.maxDepth {
			n.Children = t.build(t.children[c.ID], depth+1)
		} else {
			out = append(out, t.build(t.children[c.ID], depth)...)
		}
	}
	return out
}

func (r *HTMLRenderer) node(c *models.Comment, depth int) *node {
	n := &node{
		ID:         c.ID,
		PostID:     c.PostID,
		Depth:      depth,
		Author:     c.AuthorName,
		AvatarSize: r.avatarSize,
		Date:       c.Date.Format(dateLayout),
		DateGMT:    c.DateGMT.UTC().Format(time.RFC3339),
		Content:    r.RenderContent(c.Content),
	}
	if n.Author == "" {
		n.Author = "Anonymous"
	}
	if r.avatarSize > 0 {
		n.Avatar = Gravatar(c.AuthorEmail, r.avatarSize)
	}
	return n
}

// Gravatar returns the avatar URL for an email address
func Gravatar(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=mm&r=g", hex.EncodeToString(sum[:]), size)
}
