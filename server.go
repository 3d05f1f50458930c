package main

import (
	"net/http"

	"github.com/EduardoCrCo/final-backend-sub000/auth"
	"github.com/EduardoCrCo/final-backend-sub000/config"
	"github.com/EduardoCrCo/final-backend-sub000/dashboard"
	"github.com/EduardoCrCo/final-backend-sub000/httputil"
	"github.com/EduardoCrCo/final-backend-sub000/logging"
	"github.com/EduardoCrCo/final-backend-sub000/playlists"
	"github.com/EduardoCrCo/final-backend-sub000/ratelimit"
	"github.com/EduardoCrCo/final-backend-sub000/reviews"
	"github.com/EduardoCrCo/final-backend-sub000/store"
	"github.com/EduardoCrCo/final-backend-sub000/users"
	"github.com/EduardoCrCo/final-backend-sub000/videos"
	"github.com/EduardoCrCo/final-backend-sub000/youtube"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// server holds the dependencies shared by every route.
type server struct {
	cfg     *config.Config
	store   store.Store
	logger  zerolog.Logger
	tokens  *auth.Tokens
	youtube videos.Searcher
	// avatars stays nil when object storage is not configured.
	avatars users.AvatarStore
}

func newServer(cfg *config.Config, st store.Store, logger zerolog.Logger) *server {
	return &server{
		cfg:     cfg,
		store:   st,
		logger:  logger,
		tokens:  auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.TokenTTL),
		youtube: youtube.New(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, cfg.YouTube.Timeout),
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *server) routes() http.Handler {
	userHandler := &users.Handler{
		Auth:    auth.NewService(s.store.Users()),
		Tokens:  s.tokens,
		Users:   s.store.Users(),
		Avatars: s.avatars,
	}
	videoHandler := &videos.Handler{Videos: s.store.Videos(), YouTube: s.youtube}
	playlistHandler := &playlists.Handler{Playlists: s.store.Playlists()}
	reviewHandler := &reviews.Handler{Reviews: s.store.Reviews()}
	dashboardHandler := &dashboard.Handler{Stats: dashboard.NewService(s.store)}

	authLimit := ratelimit.Middleware(ratelimit.PerMinute(s.cfg.RateLimit.AuthPerMinute))
	searchLimit := ratelimit.Middleware(ratelimit.PerMinute(s.cfg.RateLimit.SearchPerMinute))

	r := chi.NewRouter()
	r.Use(logging.RequestLogger(s.logger))
	r.Use(logging.Recoverer)
	r.Use(httputil.ExposeErrors(!s.cfg.IsProduction()))
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(authLimit).Post("/signup", userHandler.HandleSignup)
	r.With(authLimit).Post("/signin", userHandler.HandleSignin)

	r.Get("/reviews/public", reviewHandler.HandleListPublic)
	r.With(s.tokens.Optional).Get("/reviews/{id}", reviewHandler.HandleGet)
	r.With(searchLimit, s.tokens.Optional).Get("/videos/search", videoHandler.HandleSearch)

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Required)

		r.Get("/users/me", userHandler.HandleMe)
		r.Patch("/users/me", userHandler.HandleUpdateProfile)
		r.Patch("/users/me/avatar", userHandler.HandleUpdateAvatar)
		r.Post("/users/me/avatar/upload", userHandler.HandleUploadAvatar)
		r.Delete("/users/me", userHandler.HandleDeactivate)

		r.Get("/videos", videoHandler.HandleListOwned)
		r.Get("/videos/liked", videoHandler.HandleListLiked)
		r.Get("/videos/saved", videoHandler.HandleListSaved)
		r.Get("/videos/details/{externalId}", videoHandler.HandleDetails)
		r.Post("/videos/{id}/like", videoHandler.HandleLike)
		r.Delete("/videos/{id}/like", videoHandler.HandleUnlike)
		r.Post("/videos/{id}/save", videoHandler.HandleSave)
		r.Delete("/videos/{id}/save", videoHandler.HandleUnsave)

		r.Get("/playlists", playlistHandler.HandleList)
		r.Post("/playlists", playlistHandler.HandleCreate)
		r.Get("/playlists/{id}", playlistHandler.HandleGet)
		r.Patch("/playlists/{id}", playlistHandler.HandleUpdate)
		r.Delete("/playlists/{id}", playlistHandler.HandleDelete)
		r.Post("/playlists/{id}/add", playlistHandler.HandleAddVideo)
		r.Delete("/playlists/{id}/remove/{videoId}", playlistHandler.HandleRemoveVideo)

		r.Get("/reviews", reviewHandler.HandleListMine)
		r.Post("/reviews", reviewHandler.HandleCreate)
		r.Put("/reviews/{id}", reviewHandler.HandleUpdate)
		r.Delete("/reviews/{id}", reviewHandler.HandleDelete)

		r.Get("/dashboard/users-stats", dashboardHandler.HandleUsersStats)
		r.Get("/dashboard/users-stats/{userId}", dashboardHandler.HandleUserStats)
		r.Get("/dashboard/videos-stats", dashboardHandler.HandleVideosStats)
		r.Get("/dashboard/videos-stats/{videoId}", dashboardHandler.HandleVideoStats)
	})

	return r
}
