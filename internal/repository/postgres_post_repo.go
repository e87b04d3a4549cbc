package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bbsman/internal/model"
)

// postColumns は投稿SELECTの共通カラムリスト。
const postColumns = `id, user_id, category_id, title, content, upvotes, downvotes,
	created_at, updated_at, deleted_at`

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	post := &model.Post{}
	err := scanner.Scan(&post.ID, &post.UserID, &post.CategoryID, &post.Title, &post.Content,
		&post.Upvotes, &post.Downvotes, &post.CreatedAt, &post.UpdatedAt, &post.DeletedAt)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, category_id, title, content, upvotes, downvotes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)`,
		post.ID, post.UserID, post.CategoryID, post.Title, post.Content,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return post, nil
}

// FindAll は全投稿を作成日時降順で返す。
func (r *PostgresPostRepo) FindAll(ctx context.Context) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE deleted_at IS NULL ORDER BY created_at DESC`,
	)
}

// FindByCategory はカテゴリ内の投稿を作成日時降順で返す。
func (r *PostgresPostRepo) FindByCategory(ctx context.Context, categoryID string) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE category_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		categoryID,
	)
}

// FindByUser はユーザーの投稿を作成日時降順で返す。
func (r *PostgresPostRepo) FindByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	return r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		userID,
	)
}

func (r *PostgresPostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// Update は投稿の内容を更新する。投票カウンタはVoteRepositoryのみが更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET category_id = $1, title = $2, content = $3, updated_at = $4
		 WHERE id = $5 AND deleted_at IS NULL`,
		post.CategoryID, post.Title, post.Content, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", post.ID)
	}
	return nil
}

// SoftDelete はdeleted_atを設定して投稿を論理削除する。
func (r *PostgresPostRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
