package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, callerID, categoryID, title, content string) (*model.Post, error)
	Show(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context) ([]*model.Post, error)
	Update(ctx context.Context, callerID, id, title, content string) (*model.Post, error)
	Delete(ctx context.Context, callerID, id string) error
	Comments(ctx context.Context, postID string) ([]*model.Comment, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// updatePostRequest は投稿更新リクエストのボディ。
type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create は投稿作成を処理する。
// POST /post
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	post, err := h.service.Create(r.Context(), callerID, req.CategoryID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusCreated, "投稿を作成しました。", toPostResponse(post))
}

// List は投稿一覧を新しい順で返す。
// GET /post
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "投稿一覧", toPostResponses(posts))
}

// Show は投稿詳細を返す。
// GET /post/{id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "投稿詳細", toPostResponse(post))
}

// Edit は編集ビュー用に現在の投稿を返す。
// GET /post/{id}/edit
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if middleware.UserIDFromContext(r.Context()) == "" {
		handleServiceError(w, model.NewAuthorizationError())
		return
	}

	post, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "投稿編集", toPostResponse(post))
}

// Update は投稿更新を処理する。
// PUT /post/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	post, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, "投稿を更新しました。", toPostResponse(post))
}

// Delete は投稿削除を処理する。
// DELETE /post/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeRedirect(w, http.StatusOK, "投稿を削除しました。", nil, "/")
}

// Comments は投稿への直下コメント一覧を返す。
// GET /post/{id}/comments
func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "コメント一覧", toCommentResponses(comments))
}
