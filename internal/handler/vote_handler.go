package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// VoteEngineInterface は投票・ブックマークハンドラーが必要とする
// エンジンインターフェース。
type VoteEngineInterface interface {
	Upvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error
	Downvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error
	Unvote(ctx context.Context, userID string, targetType model.TargetType, targetID string) error
	Bookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error
	Unbookmark(ctx context.Context, userID string, targetType model.TargetType, targetID string) error
}

// VoteHandler は投票・ブックマーク操作のHTTPハンドラー。
// 投稿とコメントの両方に同じアクション群を提供する。
type VoteHandler struct {
	engine VoteEngineInterface
}

// NewVoteHandler はVoteHandlerを生成する。
func NewVoteHandler(engine VoteEngineInterface) *VoteHandler {
	return &VoteHandler{engine: engine}
}

// action は対象種別を束縛した単一アクションのハンドラーを返す。
// 操作は冪等で、成功時は対象の再取得を促すためペイロードを返さない。
func (h *VoteHandler) action(
	targetType model.TargetType,
	message string,
	apply func(ctx context.Context, userID string, targetType model.TargetType, targetID string) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		targetID := chi.URLParam(r, "id")

		if err := apply(r.Context(), userID, targetType, targetID); err != nil {
			handleServiceError(w, err)
			return
		}

		writeResponse(w, http.StatusOK, message, nil)
	}
}

// Upvote はアップボートのハンドラーを返す。
// GET /post/{id}/upvote, GET /comment/{id}/upvote
func (h *VoteHandler) Upvote(targetType model.TargetType) http.HandlerFunc {
	return h.action(targetType, "アップボートしました。", h.engine.Upvote)
}

// Downvote はダウンボートのハンドラーを返す。
// GET /post/{id}/downvote, GET /comment/{id}/downvote
func (h *VoteHandler) Downvote(targetType model.TargetType) http.HandlerFunc {
	return h.action(targetType, "ダウンボートしました。", h.engine.Downvote)
}

// Unvote は投票取り消しのハンドラーを返す。
// GET /post/{id}/unvote, GET /comment/{id}/unvote
func (h *VoteHandler) Unvote(targetType model.TargetType) http.HandlerFunc {
	return h.action(targetType, "投票を取り消しました。", h.engine.Unvote)
}

// Bookmark はブックマーク設定のハンドラーを返す。
// GET /post/{id}/bookmark, GET /comment/{id}/bookmark
func (h *VoteHandler) Bookmark(targetType model.TargetType) http.HandlerFunc {
	return h.action(targetType, "ブックマークしました。", h.engine.Bookmark)
}

// Unbookmark はブックマーク解除のハンドラーを返す。
// GET /post/{id}/unbookmark, GET /comment/{id}/unbookmark
func (h *VoteHandler) Unbookmark(targetType model.TargetType) http.HandlerFunc {
	return h.action(targetType, "ブックマークを解除しました。", h.engine.Unbookmark)
}
