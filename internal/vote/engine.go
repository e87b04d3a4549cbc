// Package vote は投票・ブックマークの状態機械を提供する。
//
// (ユーザー, 対象)ごとの投票状態はNONE/UP/DOWNの3状態で、対象の
// upvotes/downvotesカウンタは各状態のリレーション数と常に一致する。
// すべての遷移は、変化した状態に対応するカウンタだけを増減させる。
package vote

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/hitoshi/bbsman/internal/model"
	"github.com/hitoshi/bbsman/internal/repository"
)

// lockStripes は対象IDで張るロックのストライプ数。
const lockStripes = 256

// Metrics は投票操作の観測に使うインターフェース。
// metrics.Collectorの部分集合として定義する。
type Metrics interface {
	RecordVoteOperation(op string)
}

// Engine は投票・ブックマークのドメインロジックを提供する。
// 同一対象への読み取り・変更・書き込みは対象IDで張ったロックで直列化し、
// カウンタ更新自体はリポジトリがトランザクションで適用する。
type Engine struct {
	votes     repository.VoteRepository
	bookmarks repository.BookmarkRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	metrics   Metrics

	locks [lockStripes]sync.Mutex
}

// NewEngine はEngineを生成する。metricsはnilでもよい。
func NewEngine(
	votes repository.VoteRepository,
	bookmarks repository.BookmarkRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	metrics Metrics,
) *Engine {
	return &Engine{
		votes:     votes,
		bookmarks: bookmarks,
		posts:     posts,
		comments:  comments,
		metrics:   metrics,
	}
}

// Upvote は(ユーザー, 対象)の投票状態をUPへ遷移させる。
// すでにUPの場合は何も変更しない（冪等）。DOWNからの遷移は
// 両カウンタを同時に調整する。
func (e *Engine) Upvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return e.applyVote(ctx, "upvote", userID, targetType, targetID, model.VoteUp)
}

// Downvote は(ユーザー, 対象)の投票状態をDOWNへ遷移させる。Upvoteの鏡像。
func (e *Engine) Downvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return e.applyVote(ctx, "downvote", userID, targetType, targetID, model.VoteDown)
}

// Unvote は(ユーザー, 対象)の投票状態をNONEへ戻す。
// もとからNONEの場合は何も変更しない。
func (e *Engine) Unvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	return e.applyVote(ctx, "unvote", userID, targetType, targetID, model.VoteNone)
}

// applyVote は現在状態を読み取り、遷移表に従ってカウンタ差分を計算して適用する。
func (e *Engine) applyVote(ctx context.Context, op, userID string, targetType model.TargetType, targetID string, desired model.VoteState) error {
	if userID == "" {
		return model.NewAuthorizationError()
	}
	if err := e.ensureTarget(ctx, targetType, targetID); err != nil {
		return err
	}

	unlock := e.lockTarget(targetID)
	defer unlock()

	current, err := e.votes.GetState(ctx, userID, targetType, targetID)
	if err != nil {
		return fmt.Errorf("failed to read vote state: %w", err)
	}

	if current == desired {
		// 冪等: 状態もカウンタも変更しない
		return nil
	}

	upDelta, downDelta := counterDeltas(current, desired)
	if err := e.votes.Apply(ctx, userID, targetType, targetID, desired, upDelta, downDelta); err != nil {
		if errors.Is(err, repository.ErrVoteTargetGone) {
			// 事前確認の後に対象が削除された
			return model.NewNotFoundError(targetLabel(targetType), targetID)
		}
		return fmt.Errorf("failed to apply vote transition: %w", err)
	}

	if e.metrics != nil {
		e.metrics.RecordVoteOperation(op)
	}
	return nil
}

// counterDeltas は状態遷移に伴うupvotes/downvotesの差分を返す。
// 変化した状態に対応するカウンタのみを増減させる。
func counterDeltas(current, desired model.VoteState) (upDelta, downDelta int) {
	switch current {
	case model.VoteUp:
		upDelta--
	case model.VoteDown:
		downDelta--
	}
	switch desired {
	case model.VoteUp:
		upDelta++
	case model.VoteDown:
		downDelta++
	}
	return upDelta, downDelta
}

// State は(ユーザー, 対象)の現在の投票状態を返す。
func (e *Engine) State(ctx context.Context, userID string, targetType model.TargetType, targetID string) (model.VoteState, error) {
	if userID == "" {
		return model.VoteNone, model.NewAuthorizationError()
	}
	state, err := e.votes.GetState(ctx, userID, targetType, targetID)
	if err != nil {
		return model.VoteNone, fmt.Errorf("failed to read vote state: %w", err)
	}
	return state, nil
}

// Bookmark は対象をブックマークする。設定済みでもエラーにならない（冪等）。
func (e *Engine) Bookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	if userID == "" {
		return model.NewAuthorizationError()
	}
	if err := e.ensureTarget(ctx, targetType, targetID); err != nil {
		return err
	}
	if err := e.bookmarks.Set(ctx, userID, targetType, targetID); err != nil {
		return fmt.Errorf("failed to set bookmark: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordVoteOperation("bookmark")
	}
	return nil
}

// Unbookmark は対象のブックマークを解除する。未設定でもエラーにならない（冪等）。
func (e *Engine) Unbookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error {
	if userID == "" {
		return model.NewAuthorizationError()
	}
	if err := e.ensureTarget(ctx, targetType, targetID); err != nil {
		return err
	}
	if err := e.bookmarks.Clear(ctx, userID, targetType, targetID); err != nil {
		return fmt.Errorf("failed to clear bookmark: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordVoteOperation("unbookmark")
	}
	return nil
}

// ensureTarget は対象が存在し、ソフトデリートされていないことを確認する。
func (e *Engine) ensureTarget(ctx context.Context, targetType model.TargetType, targetID string) error {
	switch targetType {
	case model.TargetPost:
		post, err := e.posts.FindByID(ctx, targetID)
		if err != nil {
			return fmt.Errorf("failed to find vote target: %w", err)
		}
		if post == nil {
			return model.NewNotFoundError(targetLabel(targetType), targetID)
		}
	case model.TargetComment:
		comment, err := e.comments.FindByID(ctx, targetID)
		if err != nil {
			return fmt.Errorf("failed to find vote target: %w", err)
		}
		if comment == nil {
			return model.NewNotFoundError(targetLabel(targetType), targetID)
		}
	default:
		return model.NewValidationError("不正な対象種別です: %s", targetType)
	}
	return nil
}

// targetLabel は対象種別の表示名を返す。
func targetLabel(targetType model.TargetType) string {
	switch targetType {
	case model.TargetPost:
		return "投稿"
	case model.TargetComment:
		return "コメント"
	default:
		return string(targetType)
	}
}

// lockTarget は対象IDに対応するストライプロックを取得し、解放関数を返す。
func (e *Engine) lockTarget(targetID string) func() {
	h := fnv.New32a()
	h.Write([]byte(targetID))
	mu := &e.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
