package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bbsman/internal/model"
)

// commentColumns はコメントSELECTの共通カラムリスト。
const commentColumns = `id, user_id, post_id, parent_id, content, upvotes, downvotes,
	created_at, updated_at, deleted_at`

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

func scanComment(scanner interface{ Scan(...any) error }) (*model.Comment, error) {
	comment := &model.Comment{}
	err := scanner.Scan(&comment.ID, &comment.UserID, &comment.PostID, &comment.ParentID,
		&comment.Content, &comment.Upvotes, &comment.Downvotes,
		&comment.CreatedAt, &comment.UpdatedAt, &comment.DeletedAt)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, user_id, post_id, parent_id, content, upvotes, downvotes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7)`,
		comment.ID, comment.UserID, comment.PostID, comment.ParentID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment by ID: %w", err)
	}
	return comment, nil
}

// FindAll は全コメントを作成日時降順で返す。
func (r *PostgresCommentRepo) FindAll(ctx context.Context) ([]*model.Comment, error) {
	return r.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE deleted_at IS NULL ORDER BY created_at DESC`,
	)
}

// FindByPost は投稿への直下コメント（返信を除く）を作成日時昇順で返す。
func (r *PostgresCommentRepo) FindByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return r.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id = $1 AND parent_id IS NULL AND deleted_at IS NULL
		 ORDER BY created_at ASC`,
		postID,
	)
}

// FindByParent は指定コメントへの直接の返信を作成日時昇順で返す。
func (r *PostgresCommentRepo) FindByParent(ctx context.Context, parentID string) ([]*model.Comment, error) {
	return r.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE parent_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at ASC`,
		parentID,
	)
}

// FindByUser はユーザーのコメントを作成日時降順で返す。
func (r *PostgresCommentRepo) FindByUser(ctx context.Context, userID string) ([]*model.Comment, error) {
	return r.queryComments(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		userID,
	)
}

func (r *PostgresCommentRepo) queryComments(ctx context.Context, query string, args ...any) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// Update はコメントの内容を更新する。投票カウンタはVoteRepositoryのみが更新する。
func (r *PostgresCommentRepo) Update(ctx context.Context, comment *model.Comment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = $1, updated_at = $2
		 WHERE id = $3 AND deleted_at IS NULL`,
		comment.Content, comment.UpdatedAt, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comment not found: %s", comment.ID)
	}
	return nil
}

// SoftDelete はdeleted_atを設定してコメントを論理削除する。
func (r *PostgresCommentRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("comment not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
