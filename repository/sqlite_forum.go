package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edithfert/fertpro/database"
	"github.com/edithfert/fertpro/models"
	"github.com/edithfert/fertpro/pkg"
)

type sqliteForumRepo struct {
	db database.TxQuerier
}

// NewSQLiteForumRepo returns a ForumRepository over db, which may be a
// *sql.DB or a *sql.Tx.
func NewSQLiteForumRepo(db database.TxQuerier) ForumRepository {
	return &sqliteForumRepo{db: db}
}

func (r *sqliteForumRepo) ListPosts(ctx context.Context, limit int) ([]models.ForumPost, error) {
	query := `
		SELECT id, title, body, author, replies, created_at
		FROM forum_posts
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum posts: %w", err)
	}
	defer rows.Close()

	posts := []models.ForumPost{}
	for rows.Next() {
		var p models.ForumPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &p.Author, &p.Replies, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forum post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forum post rows: %w", err)
	}

	return posts, nil
}

func (r *sqliteForumRepo) GetPost(ctx context.Context, id string) (*models.ForumPost, error) {
	query := `
		SELECT id, title, body, author, replies, created_at
		FROM forum_posts WHERE id = ?`

	p := &models.ForumPost{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Body, &p.Author, &p.Replies, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forum post: %w", err)
	}

	return p, nil
}

func (r *sqliteForumRepo) CreatePost(ctx context.Context, post *models.ForumPost) error {
	query := `
		INSERT INTO forum_posts (id, title, body, author, replies, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Body, post.Author, post.Replies, post.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create forum post: %w", err)
	}

	return nil
}

func (r *sqliteForumRepo) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	query := `
		INSERT INTO forum_replies (id, post_id, body, author, created_at)
		VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query,
		reply.ID, reply.PostID, reply.Body, reply.Author, reply.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create forum reply: %w", err)
	}

	return nil
}

func (r *sqliteForumRepo) IncrementReplies(ctx context.Context, postID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE forum_posts SET replies = replies + 1 WHERE id = ?`, postID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment reply count: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (r *sqliteForumRepo) ListReplies(ctx context.Context, postID string) ([]models.ForumReply, error) {
	query := `
		SELECT id, post_id, body, author, created_at
		FROM forum_replies
		WHERE post_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forum replies: %w", err)
	}
	defer rows.Close()

	replies := []models.ForumReply{}
	for rows.Next() {
		var rp models.ForumReply
		if err := rows.Scan(&rp.ID, &rp.PostID, &rp.Body, &rp.Author, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forum reply row: %w", err)
		}
		replies = append(replies, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forum reply rows: %w", err)
	}

	return replies, nil
}
