package model

import "time"

// TargetType は投票・ブックマークの対象エンティティ種別を表す。
type TargetType string

const (
	// TargetPost は投稿への投票・ブックマークを示す。
	TargetPost TargetType = "post"
	// TargetComment はコメントへの投票・ブックマークを示す。
	TargetComment TargetType = "comment"
)

// VoteState は(ユーザー, 対象)間の投票状態を表す。
// 3状態は排他で、1ユーザーが1対象に持てる有効な投票は常に1つ以下。
type VoteState string

const (
	// VoteNone は投票していない状態。リレーション行が存在しない場合もこれに相当する。
	VoteNone VoteState = "none"
	// VoteUp はアップボート状態。
	VoteUp VoteState = "up"
	// VoteDown はダウンボート状態。
	VoteDown VoteState = "down"
)

// Vote は(ユーザー, 対象)の投票リレーションを表す。
// stateがVoteNoneに戻っても行は削除されず保持される。
type Vote struct {
	ID         string
	UserID     string
	TargetType TargetType
	TargetID   string
	State      VoteState
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Bookmark は(ユーザー, 対象)のブックマークリレーションを表す。
type Bookmark struct {
	ID         string
	UserID     string
	TargetType TargetType
	TargetID   string
	CreatedAt  time.Time
}
