// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/bbsman/internal/model"
)

// ErrVoteTargetGone は投票対象が適用時点で存在しない（削除済みを含む）
// ことを示す。事前確認の後に対象が削除された場合に返る。
var ErrVoteTargetGone = errors.New("vote target gone")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。email重複はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	// ソフトデリート済みユーザーは見つからない扱いになる。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindAll は全ユーザーを作成日時昇順で返す。
	FindAll(ctx context.Context) ([]*model.User, error)

	// Update はユーザー情報を更新する。
	Update(ctx context.Context, user *model.User) error

	// SoftDelete はdeleted_atを設定してユーザーを論理削除する。
	SoftDelete(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// Create はカテゴリを作成する。名前重複はエラーを返す。
	Create(ctx context.Context, category *model.Category) error

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Category, error)

	// FindAll は全カテゴリを名前昇順で返す。
	FindAll(ctx context.Context) ([]*model.Category, error)

	// Update はカテゴリ情報を更新する。
	Update(ctx context.Context, category *model.Category) error

	// SoftDelete はdeleted_atを設定してカテゴリを論理削除する。
	SoftDelete(ctx context.Context, id string) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	// ソフトデリート済み投稿は見つからない扱いになる。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// FindAll は全投稿を作成日時降順で返す。
	FindAll(ctx context.Context) ([]*model.Post, error)

	// FindByCategory はカテゴリ内の投稿を作成日時降順で返す。
	FindByCategory(ctx context.Context, categoryID string) ([]*model.Post, error)

	// FindByUser はユーザーの投稿を作成日時降順で返す。
	FindByUser(ctx context.Context, userID string) ([]*model.Post, error)

	// Update は投稿の内容を更新する。投票カウンタはVoteRepositoryのみが更新する。
	Update(ctx context.Context, post *model.Post) error

	// SoftDelete はdeleted_atを設定して投稿を論理削除する。
	SoftDelete(ctx context.Context, id string) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	// ソフトデリート済みコメントは見つからない扱いになる。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// FindAll は全コメントを作成日時降順で返す。
	FindAll(ctx context.Context) ([]*model.Comment, error)

	// FindByPost は投稿への直下コメント（返信を除く）を作成日時昇順で返す。
	FindByPost(ctx context.Context, postID string) ([]*model.Comment, error)

	// FindByParent は指定コメントへの直接の返信を作成日時昇順で返す。
	FindByParent(ctx context.Context, parentID string) ([]*model.Comment, error)

	// FindByUser はユーザーのコメントを作成日時降順で返す。
	FindByUser(ctx context.Context, userID string) ([]*model.Comment, error)

	// Update はコメントの内容を更新する。投票カウンタはVoteRepositoryのみが更新する。
	Update(ctx context.Context, comment *model.Comment) error

	// SoftDelete はdeleted_atを設定してコメントを論理削除する。
	SoftDelete(ctx context.Context, id string) error
}

// VoteRepository は投票リレーションと投票カウンタの永続化インターフェース。
type VoteRepository interface {
	// GetState は(ユーザー, 対象)の現在の投票状態を返す。
	// リレーション行が存在しない場合はVoteNoneを返す。
	GetState(ctx context.Context, userID string, targetType model.TargetType, targetID string) (model.VoteState, error)

	// Apply は投票状態の遷移とカウンタ増減を同一トランザクションで適用する。
	// upDelta/downDeltaは対象のupvotes/downvotesへ加算する差分。
	// カウンタ更新時に対象が存在しない場合はErrVoteTargetGoneを返す。
	Apply(ctx context.Context, userID string, targetType model.TargetType, targetID string, newState model.VoteState, upDelta, downDelta int) error

	// FindByUser はユーザーの有効な投票（VoteNone以外）を返す。
	FindByUser(ctx context.Context, userID string) ([]*model.Vote, error)
}

// BookmarkRepository はブックマークリレーションの永続化インターフェース。
type BookmarkRepository interface {
	// Set はブックマークを設定する。設定済みの場合も成功する（冪等）。
	Set(ctx context.Context, userID string, targetType model.TargetType, targetID string) error

	// Clear はブックマークを解除する。未設定の場合も成功する（冪等）。
	Clear(ctx context.Context, userID string, targetType model.TargetType, targetID string) error

	// Exists はブックマークが設定されているかどうかを返す。
	Exists(ctx context.Context, userID string, targetType model.TargetType, targetID string) (bool, error)

	// FindPostsByUser はユーザーがブックマークした投稿を返す。
	FindPostsByUser(ctx context.Context, userID string) ([]*model.Post, error)

	// FindCommentsByUser はユーザーがブックマークしたコメントを返す。
	FindCommentsByUser(ctx context.Context, userID string) ([]*model.Comment, error)
}
