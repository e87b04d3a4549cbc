package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Show(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, callerID, id, name, email string) (*model.User, error)
	Delete(ctx context.Context, callerID, id, sessionID string) error
	Votes(ctx context.Context, userID string) ([]*model.Vote, error)
	BookmarkedPosts(ctx context.Context, userID string) ([]*model.Post, error)
	BookmarkedComments(ctx context.Context, userID string) ([]*model.Comment, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateUserRequest はユーザー更新リクエストのボディ。
type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create はユーザー登録を処理する。
// POST /user
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeRedirect(w, http.StatusCreated, "ユーザーを登録しました。", toUserResponse(user), "/auth/login")
}

// List はユーザー一覧を返す。
// GET /user
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "ユーザー一覧", toUserResponses(users))
}

// Show はユーザー詳細を返す。
// GET /user/{id}
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Show(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "ユーザー詳細", toUserResponse(user))
}

// Edit は編集ビュー用に現在のユーザー情報を返す。本人のみ。
// GET /user/{id}/edit
func (h *UserHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := middleware.UserIDFromContext(r.Context())

	if callerID == "" {
		handleServiceError(w, model.NewAuthorizationError())
		return
	}

	user, err := h.service.Show(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if callerID != id {
		handleServiceError(w, model.NewOwnershipError("ユーザー"))
		return
	}

	writeResponse(w, http.StatusOK, "ユーザー編集", toUserResponse(user))
}

// Update はユーザー情報の更新を処理する。
// PUT /user/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	user, err := h.service.Update(r.Context(), callerID, chi.URLParam(r, "id"), req.Name, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeResponse(w, http.StatusOK, "ユーザー情報を更新しました。", toUserResponse(user))
}

// Delete はユーザーの退会を処理する。退会後は自セッションも破棄される。
// DELETE /user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.UserIDFromContext(r.Context())

	var sessionID string
	if sess, err := middleware.SessionFromContext(r.Context()); err == nil {
		sessionID = sess.ID()
	}

	if err := h.service.Delete(r.Context(), callerID, chi.URLParam(r, "id"), sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeRedirect(w, http.StatusOK, "退会しました。", nil, "/")
}

// Votes はユーザーの投票一覧を返す。
// GET /user/{id}/votes
func (h *UserHandler) Votes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.service.Votes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "投票一覧", toVoteResponses(votes))
}

// BookmarkedPosts はユーザーがブックマークした投稿一覧を返す。
// GET /user/{id}/bookmarks/posts
func (h *UserHandler) BookmarkedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.BookmarkedPosts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "ブックマークした投稿", toPostResponses(posts))
}

// BookmarkedComments はユーザーがブックマークしたコメント一覧を返す。
// GET /user/{id}/bookmarks/comments
func (h *UserHandler) BookmarkedComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.BookmarkedComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeResponse(w, http.StatusOK, "ブックマークしたコメント", toCommentResponses(comments))
}
