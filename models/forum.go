package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ForumPost is a discussion thread in the community view.
// Replies is a denormalized counter kept in step with forum_replies.
type ForumPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumReply is a single answer to a post.
type ForumReply struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Forum validation failures; messages are i18n keys.
var (
	ErrForumTitleLength = errors.New("forum.titleLength")
	ErrForumBodyLength  = errors.New("forum.bodyLength")
	ErrForumBodyEmpty   = errors.New("forum.bodyEmpty")
)

const (
	forumTitleMin = 3
	forumTitleMax = 120
	forumBodyMax  = 2000
)

// CreatePostRequest starts a new discussion.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate trims the fields and checks their lengths. The body is optional.
func (r *CreatePostRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)

	n := utf8.RuneCountInString(r.Title)
	if n < forumTitleMin || n > forumTitleMax {
		return ErrForumTitleLength
	}
	if utf8.RuneCountInString(r.Body) > forumBodyMax {
		return ErrForumBodyLength
	}
	return nil
}

// CreateReplyRequest answers a post.
type CreateReplyRequest struct {
	Body string `json:"body"`
}

// Validate trims the body and checks it is present and not too long.
func (r *CreateReplyRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return ErrForumBodyEmpty
	}
	if utf8.RuneCountInString(r.Body) > forumBodyMax {
		return ErrForumBodyLength
	}
	return nil
}
