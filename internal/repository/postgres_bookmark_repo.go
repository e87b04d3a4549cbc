package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/bbsman/internal/model"
)

// PostgresBookmarkRepo はPostgreSQLを使用したブックマークリポジトリ。
type PostgresBookmarkRepo struct {
	db *sql.DB
}

// NewPostgresBookmarkRepo はPostgresBookmarkRepoを生成する。
func NewPostgresBookmarkRepo(db *sql.DB) *PostgresBookmarkRepo {
	return &PostgresBookmarkRepo{db: db}
}

// Set はブックマークを設定する。設定済みの場合も成功する（冪等）。
func (r *PostgresBookmarkRepo) Set(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, user_id, target_type, target_id, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id, target_type, target_id) DO NOTHING`,
		uuid.New().String(), userID, targetType, targetID,
	)
	if err != nil {
		return fmt.Errorf("failed to set bookmark: %w", err)
	}
	return nil
}

// Clear はブックマークを解除する。未設定の場合も成功する（冪等）。
func (r *PostgresBookmarkRepo) Clear(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND target_type = $2 AND target_id = $3`,
		userID, targetType, targetID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear bookmark: %w", err)
	}
	return nil
}

// Exists はブックマークが設定されているかどうかを返す。
func (r *PostgresBookmarkRepo) Exists(ctx context.Context, userID string, targetType model.TargetType, targetID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookmarks WHERE user_id = $1 AND target_type = $2 AND target_id = $3
		)`,
		userID, targetType, targetID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return exists, nil
}

// FindPostsByUser はユーザーがブックマークした投稿を返す。
func (r *PostgresBookmarkRepo) FindPostsByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, p.category_id, p.title, p.content, p.upvotes, p.downvotes,
		        p.created_at, p.updated_at, p.deleted_at
		 FROM bookmarks b
		 JOIN posts p ON p.id = b.target_id
		 WHERE b.user_id = $1 AND b.target_type = 'post' AND p.deleted_at IS NULL
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarked posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmarked post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarked posts: %w", err)
	}

	return posts, nil
}

// FindCommentsByUser はユーザーがブックマークしたコメントを返す。
func (r *PostgresBookmarkRepo) FindCommentsByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.post_id, c.parent_id, c.content, c.upvotes, c.downvotes,
		        c.created_at, c.updated_at, c.deleted_at
		 FROM bookmarks b
		 JOIN comments c ON c.id = b.target_id
		 WHERE b.user_id = $1 AND b.target_type = 'comment' AND c.deleted_at IS NULL
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarked comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmarked comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarked comments: %w", err)
	}

	return comments, nil
}

// compile-time interface check
var _ BookmarkRepository = (*PostgresBookmarkRepo)(nil)
