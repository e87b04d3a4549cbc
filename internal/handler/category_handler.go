package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	Create(ctx context.Context, callerID, name, description string) (*model.Category, error)
	Show(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Update(ctx context.Context, callerID, id, name, description string) (*model.Category, error)
	Delete(ctx context.Context, callerID, id string) error
	Posts(ctx context.Context, categoryID string) ([]*model.Post, error)
}

// CategoryHandler はカテゴリ管理のHTTPハンドラー。
type CategoryHandler struct {
	service CategoryServiceInterface
}

// NewCategoryHandler はCategoryHandlerを生成する。
func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// categoryRequest はカテゴリ作成・更新リクエストのボディ。
type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create はカテゴリ作成を処理する。
// POST /category
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	category, err := h.service.Create(r.Context(), callerID, req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusCreated, "カテゴリを作成しました。", toCategoryResponse(category))
}

// List はカテゴリ一覧を返す。
// GET /category
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "カテゴリ一覧", toCategoryResponses(categories))
}

// Show はカテゴリ詳細を返す。
// GET /category/{id}
func (h *CategoryHandler) Show(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "カテゴリ詳細", toCategoryResponse(category))
}

// Edit は編集ビュー用に現在のカテゴリ情報を返す。
// GET /category/{id}/edit
func (h *CategoryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if middleware.UserIDFromContext(r.Context()) == "" {
		handleServiceError(w, model.NewAuthorizationError())
		return
	}

	category, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "カテゴリ編集", toCategoryResponse(category))
}

// Update はカテゴリ更新を処理する。
// PUT /category/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	category, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, "カテゴリを更新しました。", toCategoryResponse(category))
}

// Delete はカテゴリ削除を処理する。
// DELETE /category/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeRedirect(w, http.StatusOK, "カテゴリを削除しました。", nil, "/")
}

// Posts はカテゴリ内の投稿一覧を返す。
// GET /category/{id}/posts
func (h *CategoryHandler) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Posts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "カテゴリ内の投稿一覧", toPostResponses(posts))
}
