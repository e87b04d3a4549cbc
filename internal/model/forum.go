package model

import "time"

// Category は投稿の分類カテゴリを表す。
type Category struct {
	ID          string
	UserID      string // 作成者
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted はソフトデリート済みかどうかを返す。
func (c *Category) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Post はカテゴリに属する投稿を表す。
// Upvotes/Downvotesは投票リレーションの件数と常に一致する。
type Post struct {
	ID         string
	UserID     string
	CategoryID string
	Title      string
	Content    string // サニタイズ済み
	Upvotes    int
	Downvotes  int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// IsDeleted はソフトデリート済みかどうかを返す。
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Score は表示用スコア（upvotes - downvotes）を返す。
func (p *Post) Score() int {
	return p.Upvotes - p.Downvotes
}

// Comment は投稿へのコメントを表す。ParentIDが非nilの場合は
// 他コメントへの返信（スレッド構造）となる。
type Comment struct {
	ID        string
	UserID    string
	PostID    string
	ParentID  *string
	Content   string // サニタイズ済み
	Upvotes   int
	Downvotes int
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted はソフトデリート済みかどうかを返す。
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// Score は表示用スコア（upvotes - downvotes）を返す。
func (c *Comment) Score() int {
	return c.Upvotes - c.Downvotes
}
