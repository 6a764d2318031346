package repository

import (
	"context"

	"github.com/edithfert/fertpro/models"
)

// ForumRepository persists community threads and replies.
//
// ListPosts returns newest first. IncrementReplies returns pkg.ErrNotFound
// when the post does not exist; callers pair it with CreateReply inside one
// transaction so the counter never drifts from the replies table.
type ForumRepository interface {
	ListPosts(ctx context.Context, limit int) ([]models.ForumPost, error)
	GetPost(ctx context.Context, id string) (*models.ForumPost, error)
	CreatePost(ctx context.Context, post *models.ForumPost) error
	CreateReply(ctx context.Context, reply *models.ForumReply) error
	IncrementReplies(ctx context.Context, postID string) error
	ListReplies(ctx context.Context, postID string) ([]models.ForumReply, error)
}
