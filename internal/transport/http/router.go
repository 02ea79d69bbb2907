package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"streamify/internal/handler"
	"streamify/internal/httputil"
	authmw "streamify/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler         *handler.UserHandler
	VideoHandler        *handler.VideoHandler
	CommentHandler      *handler.CommentHandler
	TweetHandler        *handler.TweetHandler
	LikeHandler         *handler.LikeHandler
	SubscriptionHandler *handler.SubscriptionHandler
	PlaylistHandler     *handler.PlaylistHandler
	HealthHandler       *handler.HealthHandler

	JWTSecret   string
	CORSOrigins []string
	Logger      *slog.Logger

	// AuthLimiter throttles login and registration. Nil disables it.
	AuthLimiter authmw.RateLimiter

	// TrustProxyHeaders rewrites RemoteAddr from proxy headers.
	TrustProxyHeaders bool
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(authmw.RequestLogger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	requireAuth := authmw.AuthMiddleware(cfg.JWTSecret)
	optionalAuth := authmw.OptionalAuth(cfg.JWTSecret)
	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.AuthLimiter != nil {
		throttle = authmw.RateLimit(cfg.AuthLimiter)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", cfg.HealthHandler.Check)

		r.Route("/users", func(r chi.Router) {
			r.With(throttle).Post("/register", cfg.UserHandler.Register)
			r.With(throttle).Post("/login", cfg.UserHandler.Login)
			r.Post("/refresh-token", cfg.UserHandler.Refresh)
			r.With(optionalAuth).Get("/c/{username}", cfg.UserHandler.ChannelProfile)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", cfg.UserHandler.Logout)
				r.Post("/change-password", cfg.UserHandler.ChangePassword)
				r.Get("/current-user", cfg.UserHandler.CurrentUser)
				r.Patch("/update-account", cfg.UserHandler.UpdateAccount)
				r.Patch("/avatar", cfg.UserHandler.UpdateAvatar)
				r.Patch("/cover-image", cfg.UserHandler.UpdateCoverImage)
				r.Get("/history", cfg.UserHandler.WatchHistory)
			})
		})

		r.With(optionalAuth).Get("/channel/{channelId}", cfg.UserHandler.ChannelByID)

		r.Route("/videos", func(r chi.Router) {
			r.With(optionalAuth).Get("/", cfg.VideoHandler.List)
			r.With(requireAuth).Get("/feed", cfg.VideoHandler.Feed)
			r.With(optionalAuth).Get("/{videoId}", cfg.VideoHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", cfg.VideoHandler.Publish)
				r.Patch("/{videoId}", cfg.VideoHandler.Update)
				r.Delete("/{videoId}", cfg.VideoHandler.Delete)
				r.Patch("/toggle/publish/{videoId}", cfg.VideoHandler.TogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/{videoId}", cfg.CommentHandler.List)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{videoId}", cfg.CommentHandler.Create)
				r.Patch("/c/{commentId}", cfg.CommentHandler.Update)
				r.Delete("/c/{commentId}", cfg.CommentHandler.Delete)
			})
		})

		r.Route("/tweets", func(r chi.Router) {
			r.With(optionalAuth).Get("/user/{userId}", cfg.TweetHandler.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", cfg.TweetHandler.Create)
				r.Patch("/{tweetId}", cfg.TweetHandler.Update)
				r.Delete("/{tweetId}", cfg.TweetHandler.Delete)
			})
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", cfg.LikeHandler.ToggleVideo)
			r.Post("/toggle/c/{commentId}", cfg.LikeHandler.ToggleComment)
			r.Post("/toggle/t/{tweetId}", cfg.LikeHandler.ToggleTweet)
			r.Get("/videos", cfg.LikeHandler.LikedVideos)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/c/{channelId}", cfg.SubscriptionHandler.Subscribers)
			r.Get("/u/{subscriberId}", cfg.SubscriptionHandler.SubscribedChannels)
			r.With(requireAuth).Post("/c/{channelId}", cfg.SubscriptionHandler.Toggle)
		})

		r.Route("/playlist", func(r chi.Router) {
			r.With(optionalAuth).Get("/{playlistId}/details", cfg.PlaylistHandler.Details)
			r.Get("/channel/{userId}", cfg.PlaylistHandler.ByChannel)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/create", cfg.PlaylistHandler.Create)
				r.Post("/add-video", cfg.PlaylistHandler.AddVideo)
				r.Post("/remove-video", cfg.PlaylistHandler.RemoveVideo)
				r.Get("/user", cfg.PlaylistHandler.Mine)
				r.Patch("/{playlistId}", cfg.PlaylistHandler.Update)
				r.Delete("/{playlistId}", cfg.PlaylistHandler.Delete)
			})
		})
	})

	return r
}
