package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Create(ctx context.Context, callerID, postID string, parentID *string, content string) (*model.Comment, error)
	Show(ctx context.Context, id string) (*model.Comment, error)
	List(ctx context.Context) ([]*model.Comment, error)
	Update(ctx context.Context, callerID, id, content string) (*model.Comment, error)
	Delete(ctx context.Context, callerID, id string) error
	GetReplies(ctx context.Context, commentID string) ([]*model.Comment, error)
}

// CommentHandler はコメント管理のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// createCommentRequest はコメント作成リクエストのボディ。
type createCommentRequest struct {
	PostID   string  `json:"post_id"`
	ParentID *string `json:"parent_id,omitempty"`
	Content  string  `json:"content"`
}

// updateCommentRequest はコメント更新リクエストのボディ。
type updateCommentRequest struct {
	Content string `json:"content"`
}

// Create はコメント作成を処理する。parent_id指定で返信になる。
// POST /comment
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	comment, err := h.service.Create(r.Context(), callerID, req.PostID, req.ParentID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusCreated, "コメントを作成しました。", toCommentResponse(comment))
}

// List は全コメントを新しい順で返す。
// GET /comment
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "コメント一覧", toCommentResponses(comments))
}

// Show はコメント詳細を返す。
// GET /comment/{id}
func (h *CommentHandler) Show(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "コメント詳細", toCommentResponse(comment))
}

// Edit は編集ビュー用に現在のコメントを返す。
// GET /comment/{id}/edit
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if middleware.UserIDFromContext(r.Context()) == "" {
		handleServiceError(w, model.NewAuthorizationError())
		return
	}

	comment, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "コメント編集", toCommentResponse(comment))
}

// Update はコメント更新を処理する。
// PUT /comment/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	comment, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, "コメントを更新しました。", toCommentResponse(comment))
}

// Delete はコメント削除を処理する。
// DELETE /comment/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeRedirect(w, http.StatusOK, "コメントを削除しました。", nil, "/")
}

// Replies はコメント配下の全返信を深さ優先順で返す。
// GET /comment/{id}/replies
func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.service.GetReplies(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "返信一覧", toCommentResponses(replies))
}
