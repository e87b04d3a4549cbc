package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/bbsman/internal/metrics"
	"github.com/hitoshi/bbsman/internal/middleware"
	"github.com/hitoshi/bbsman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	CookieOptions     middleware.CookieOptions
	CORSAllowedOrigin string
	Logger            *slog.Logger
	HTTPRecorder      middleware.HTTPRecorder

	// サービス
	AuthService     AuthServiceInterface
	AuthConfig      AuthHandlerConfig
	UserService     UserServiceInterface
	CategoryService CategoryServiceInterface
	PostService     PostServiceInterface
	CommentService  CommentServiceInterface
	VoteEngine      VoteEngineInterface

	// 運用エンドポイント
	MetricsGatherer prometheus.Gatherer
	HealthCheck     func() error
}

// entityRoutes は1エンティティ分のルート束。CRUDの有無と追加アクションを
// 宣言的に記述し、mountEntityが同じ形でマウントする。
type entityRoutes struct {
	prefix  string
	create  http.HandlerFunc
	list    http.HandlerFunc
	show    http.HandlerFunc
	edit    http.HandlerFunc
	update  http.HandlerFunc
	destroy http.HandlerFunc
	// actions はGET /{id}/<name>で公開する追加アクション。
	actions map[string]http.HandlerFunc
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを
// 構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Metrics → Session → Logging
//
// セッションは全リクエストで解決され、更新後のCookieが常に付与される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewSessionMiddleware(deps.SessionResolver, deps.CookieOptions))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	// 未定義パスとサポート外メソッドもエンベロープで応答する
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handleServiceError(w, model.NewRouteNotFoundError(req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handleServiceError(w, model.NewMethodError(req.Method))
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	postHandler := NewPostHandler(deps.PostService)
	commentHandler := NewCommentHandler(deps.CommentService)
	voteHandler := NewVoteHandler(deps.VoteEngine)

	// ホーム: 最新の投稿一覧
	r.Get("/", postHandler.List)

	// 認証
	r.Route("/auth", func(r chi.Router) {
		r.Get("/register", authHandler.RegisterForm)
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)
	})

	// エンティティごとのルート束
	tables := []entityRoutes{
		{
			prefix:  "/user",
			create:  userHandler.Create,
			list:    userHandler.List,
			show:    userHandler.Show,
			edit:    userHandler.Edit,
			update:  userHandler.Update,
			destroy: userHandler.Delete,
			actions: map[string]http.HandlerFunc{
				"votes": userHandler.Votes,
			},
		},
		{
			prefix:  "/category",
			create:  categoryHandler.Create,
			list:    categoryHandler.List,
			show:    categoryHandler.Show,
			edit:    categoryHandler.Edit,
			update:  categoryHandler.Update,
			destroy: categoryHandler.Delete,
			actions: map[string]http.HandlerFunc{
				"posts": categoryHandler.Posts,
			},
		},
		{
			prefix:  "/post",
			create:  postHandler.Create,
			list:    postHandler.List,
			show:    postHandler.Show,
			edit:    postHandler.Edit,
			update:  postHandler.Update,
			destroy: postHandler.Delete,
			actions: map[string]http.HandlerFunc{
				"comments":   postHandler.Comments,
				"upvote":     voteHandler.Upvote(model.TargetPost),
				"downvote":   voteHandler.Downvote(model.TargetPost),
				"unvote":     voteHandler.Unvote(model.TargetPost),
				"bookmark":   voteHandler.Bookmark(model.TargetPost),
				"unbookmark": voteHandler.Unbookmark(model.TargetPost),
			},
		},
		{
			prefix:  "/comment",
			create:  commentHandler.Create,
			list:    commentHandler.List,
			show:    commentHandler.Show,
			edit:    commentHandler.Edit,
			update:  commentHandler.Update,
			destroy: commentHandler.Delete,
			actions: map[string]http.HandlerFunc{
				"replies":    commentHandler.Replies,
				"upvote":     voteHandler.Upvote(model.TargetComment),
				"downvote":   voteHandler.Downvote(model.TargetComment),
				"unvote":     voteHandler.Unvote(model.TargetComment),
				"bookmark":   voteHandler.Bookmark(model.TargetComment),
				"unbookmark": voteHandler.Unbookmark(model.TargetComment),
			},
		},
	}
	for _, t := range tables {
		mountEntity(r, t)
	}

	// ブックマーク一覧はユーザー配下の2階層ルート
	r.Get("/user/{id}/bookmarks/posts", userHandler.BookmarkedPosts)
	r.Get("/user/{id}/bookmarks/comments", userHandler.BookmarkedComments)

	// 運用エンドポイント
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				writeResponse(w, http.StatusServiceUnavailable, "unhealthy", nil)
				return
			}
		}
		writeResponse(w, http.StatusOK, "ok", nil)
	})
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	return r
}

// mountEntity はルート束をchiにマウントする。
func mountEntity(r chi.Router, t entityRoutes) {
	r.Route(t.prefix, func(r chi.Router) {
		if t.create != nil {
			r.Post("/", t.create)
		}
		if t.list != nil {
			r.Get("/", t.list)
		}
		r.Route("/{id}", func(r chi.Router) {
			if t.show != nil {
				r.Get("/", t.show)
			}
			if t.update != nil {
				r.Put("/", t.update)
			}
			if t.destroy != nil {
				r.Delete("/", t.destroy)
			}
			if t.edit != nil {
				r.Get("/edit", t.edit)
			}
			for name, fn := range t.actions {
				r.Get("/"+name, fn)
			}
		})
	})
}
