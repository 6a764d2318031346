package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edithfert/fertpro/database"
	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
	"github.com/edithfert/fertpro/repository"
	"github.com/edithfert/fertpro/ws"
)

// forumPageSize caps how many threads the community view lists.
const forumPageSize = 50

// ForumService runs the community forum.
//
// ListPosts: newest first. Anyone may read.
// CreatePost: "Start a New Discussion"; logged-in sessions only.
// Reply: answers a thread and bumps its reply counter atomically.
// Replies: the answers to one thread, oldest first.
type ForumService interface {
	ListPosts(ctx context.Context) ([]models.ForumPost, error)
	CreatePost(ctx context.Context, sessionID string, req *models.CreatePostRequest) (*models.ForumPost, error)
	Reply(ctx context.Context, sessionID, postID string, req *models.CreateReplyRequest) (*models.ForumReply, error)
	Replies(ctx context.Context, postID string) ([]models.ForumReply, error)
}

type forumService struct {
	db     *sql.DB // for WithTx in Reply
	repo   repository.ForumRepository
	store  *SessionStore
	hub    ws.EventPublisher
	logger *zap.Logger
}

// NewForumService creates the service. db is needed directly because Reply
// builds a transaction-bound repository.
func NewForumService(
	db *sql.DB,
	repo repository.ForumRepository,
	store *SessionStore,
	hub ws.EventPublisher,
	logger *zap.Logger,
) ForumService {
	return &forumService{
		db:     db,
		repo:   repo,
		store:  store,
		hub:    hub,
		logger: logger,
	}
}

func (s *forumService) ListPosts(ctx context.Context) ([]models.ForumPost, error) {
	return s.repo.ListPosts(ctx, forumPageSize)
}

func (s *forumService) CreatePost(ctx context.Context, sessionID string, req *models.CreatePostRequest) (*models.ForumPost, error) {
	if err := requireLogin(s.store, sessionID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, pkg.WrapNotice(pkg.ErrBadRequest, err.Error(), err)
	}

	post := &models.ForumPost{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		Author:    models.DemoAccount().Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.hub.BroadcastToAll(ws.Event{Op: ws.OpForumPostCreate, Data: post})
	s.logger.Info("forum post created", zap.String("post", post.ID), zap.String("session", sessionID))

	return post, nil
}

// Reply inserts the reply and increments the thread's counter in one
// transaction: both happen or neither does.
func (s *forumService) Reply(ctx context.Context, sessionID, postID string, req *models.CreateReplyRequest) (*models.ForumReply, error) {
	if err := requireLogin(s.store, sessionID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, pkg.WrapNotice(pkg.ErrBadRequest, err.Error(), err)
	}

	reply := &models.ForumReply{
		ID:        uuid.NewString(),
		PostID:    postID,
		Body:      req.Body,
		Author:    models.DemoAccount().Name,
		CreatedAt: time.Now().UTC(),
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txRepo := repository.NewSQLiteForumRepo(tx)

		if err := txRepo.IncrementReplies(ctx, postID); err != nil {
			return err
		}
		return txRepo.CreateReply(ctx, reply)
	})
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, pkg.NewNotice(pkg.ErrNotFound, "forum.postNotFound")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reply to post %s: %w", postID, err)
	}

	s.hub.BroadcastToAll(ws.Event{Op: ws.OpForumReplyCreate, Data: reply})
	return reply, nil
}

func (s *forumService) Replies(ctx context.Context, postID string) ([]models.ForumReply, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, pkg.NewNotice(pkg.ErrNotFound, "forum.postNotFound")
		}
		return nil, err
	}
	return s.repo.ListReplies(ctx, postID)
}
