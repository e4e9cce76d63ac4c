package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/headless-comments-api/internal/models"
)

var messageTemplate = template.Must(template.New("notification").Parse(`<p>{{.Intro}}</p>
<p><strong>Author:</strong> {{.Comment.AuthorName}}<br>
<strong>Email:</strong> {{.Comment.AuthorEmail}}<br>
<strong>IP address:</strong> {{.Comment.AuthorIP}}</p>
<p><strong>Comment:</strong></p>
<blockquote>{{.Comment.Content}}</blockquote>
{{if .Post.Permalink}}<p>You can see all comments on this post here: <a href="{{.Post.Permalink}}#comments">{{.Post.Permalink}}#comments</a></p>{{end}}
{{if .Pending}}<p>This comment is awaiting approval.</p>{{end}}`))

type messageData struct {
	Intro   string
	Comment *models.Comment
	Post    *models.Post
	Pending bool
}

func authorMessage(site string, post *models.Post, comment *models.Comment) (Message, error) {
	body, err := renderMessage(messageData{
		Intro:   fmt.Sprintf("New comment on your post \"%s\"", post.Title),
		Comment: comment,
		Post:    post,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      post.AuthorEmail,
		Subject: fmt.Sprintf("[%s] Comment: \"%s\"", site, post.Title),
		HTML:    body,
		ReplyTo: comment.AuthorEmail,
	}, nil
}

func moderatorMessage(site, to string, post *models.Post, comment *models.Comment) (Message, error) {
	body, err := renderMessage(messageData{
		Intro:   fmt.Sprintf("A new comment on the post \"%s\" is waiting for your approval", post.Title),
		Comment: comment,
		Post:    post,
		Pending: true,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] Please moderate: \"%s\"", site, post.Title),
		HTML:    body,
	}, nil
}

func renderMessage(data messageData) (string, error) {
	var buf bytes.Buffer
	if err := messageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}
