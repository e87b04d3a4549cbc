package handler

import (
	"time"

	"github.com/hitoshi/bbsman/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*model.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// categoryResponse はカテゴリ情報のAPIレスポンス。
type categoryResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func toCategoryResponses(categories []*model.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

// postResponse は投稿情報のAPIレスポンス。
type postResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		CategoryID: p.CategoryID,
		Title:      p.Title,
		Content:    p.Content,
		Upvotes:    p.Upvotes,
		Downvotes:  p.Downvotes,
		Score:      p.Score(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPostResponses(posts []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

// commentResponse はコメント情報のAPIレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Score:     c.Score(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCommentResponses(comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

// voteResponse は投票リレーションのAPIレスポンス。
type voteResponse struct {
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	State      string    `json:"state"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toVoteResponses(votes []*model.Vote) []voteResponse {
	out := make([]voteResponse, 0, len(votes))
	for _, v := range votes {
		out = append(out, voteResponse{
			TargetType: string(v.TargetType),
			TargetID:   v.TargetID,
			State:      string(v.State),
			UpdatedAt:  v.UpdatedAt,
		})
	}
	return out
}
