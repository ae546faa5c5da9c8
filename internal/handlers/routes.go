package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/vidtube/backend/internal/apierror"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/validation"
)

const (
	messageRouteNotFound    = "Route not found"
	messageMethodNotAllowed = "Method not allowed"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Resets        PasswordResets
	Notifier      auth.ResetNotifier
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Playlists     PlaylistStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	History       HistoryStore
	Dashboard     DashboardStore
	Storage       MediaStorage
	Durations     DurationQueue
	Health        HealthChecker
	Schemas       validation.Schemas

	AuthLimiter    middleware.RateLimiter
	TrustedProxies middleware.TrustedProxies
	Metrics        *metrics.HTTP
	Logger         *slog.Logger
	AllowedOrigins []string
	Version        string
	NowFunc        func() time.Time
}

// NewRouter wires every endpoint under /api/v1 behind the shared middleware stack.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.SecureHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handle(func(http.ResponseWriter, *http.Request) error {
		return apierror.NotFound(messageRouteNotFound)
	}))
	r.MethodNotAllowed(handle(func(http.ResponseWriter, *http.Request) error {
		return apierror.New(http.StatusMethodNotAllowed, messageMethodNotAllowed)
	}))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	requireAuth := auth.Require(deps.Sessions)
	optionalAuth := auth.Optional(deps.Sessions)
	limited := middleware.Limit(deps.AuthLimiter, "auth", deps.TrustedProxies)

	health := HealthHandler{DB: deps.Health, Version: deps.Version}
	authH := AuthHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Resets:   deps.Resets,
		Notifier: deps.Notifier,
		Storage:  deps.Storage,
		Schemas:  deps.Schemas,
		NowFunc:  deps.NowFunc,
	}
	users := UserHandler{Users: deps.Users, History: deps.History, Storage: deps.Storage, Schemas: deps.Schemas}
	videos := VideoHandler{
		Videos:    deps.Videos,
		History:   deps.History,
		Storage:   deps.Storage,
		Durations: deps.Durations,
		Schemas:   deps.Schemas,
		NowFunc:   deps.NowFunc,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Schemas: deps.Schemas, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, Schemas: deps.Schemas, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Schemas: deps.Schemas, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	likes := LikeHandler{Likes: deps.Likes}
	dashboard := DashboardHandler{Dashboard: deps.Dashboard, Videos: deps.Videos, Schemas: deps.Schemas, NowFunc: deps.NowFunc}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", handle(health.Handle))

		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/register", handle(authH.Register))
			r.With(limited).Post("/login", handle(authH.Login))
			r.With(limited).Post("/refresh-token", handle(authH.RefreshToken))
			r.With(limited).Post("/forgot-password", handle(authH.ForgotPassword))
			r.Post("/reset-password", handle(authH.ResetPassword))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", handle(authH.Logout))
				r.Post("/change-password", handle(authH.ChangePassword))
				r.Get("/current-user", handle(authH.CurrentUser))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(optionalAuth).Get("/c/{username}", handle(users.ChannelProfile))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Patch("/update-account", handle(users.UpdateAccount))
				r.Patch("/avatar", handle(users.UpdateAvatar))
				r.Patch("/cover-image", handle(users.UpdateCoverImage))
				r.Get("/history", handle(users.WatchHistory))
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", handle(videos.List))
			r.With(optionalAuth).Get("/{videoId}", handle(videos.Get))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(videos.Publish))
				r.Patch("/{videoId}", handle(videos.Update))
				r.Delete("/{videoId}", handle(videos.Delete))
				r.Patch("/toggle/publish/{videoId}", handle(videos.TogglePublish))
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.With(optionalAuth).Get("/{videoId}", handle(comments.List))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(comments.Create))
				r.Patch("/{commentId}", handle(comments.Update))
				r.Delete("/{commentId}", handle(comments.Delete))
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Get("/", handle(tweets.List))
			r.Get("/user/{userId}", handle(tweets.ListByUser))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", handle(tweets.Create))
				r.Patch("/{tweetId}", handle(tweets.Update))
				r.Delete("/{tweetId}", handle(tweets.Delete))
			})
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", handle(playlists.Create))
			r.Get("/user/{userId}", handle(playlists.ListByUser))
			r.Patch("/add/{videoId}/{playlistId}", handle(playlists.AddVideo))
			r.Patch("/remove/{videoId}/{playlistId}", handle(playlists.RemoveVideo))
			r.Get("/{playlistId}", handle(playlists.Get))
			r.Patch("/{playlistId}", handle(playlists.Update))
			r.Delete("/{playlistId}", handle(playlists.Delete))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/c/{channelId}", handle(subscriptions.Toggle))
			r.Get("/channels", handle(subscriptions.Channels))
			r.Get("/u/{channelId}", handle(subscriptions.Subscribers))
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", handle(likes.ToggleVideo()))
			r.Post("/toggle/c/{commentId}", handle(likes.ToggleComment()))
			r.Post("/toggle/t/{tweetId}", handle(likes.ToggleTweet()))
			r.Get("/videos", handle(likes.LikedVideos))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", handle(dashboard.ChannelStats))
			r.Get("/videos", handle(dashboard.ChannelVideos))
			r.Get("/videos/{videoId}/stats", handle(dashboard.VideoStats))
		})
	})

	return r
}
