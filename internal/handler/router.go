package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/resp"
)

const (
	AuthRate    = 0.2
	AuthBurst   = 5
	PostRate    = 0.1
	PostBurst   = 3
	SocketRate  = 0.5
	SocketBurst = 10
)

// Router builds the HTTP routing table: global middleware, the JSON API under
// /api and the push endpoint under /ws. It fills deps.Limiters when unset.
func Router(deps *AppDeps) http.Handler {
	if deps.Limiters == nil {
		deps.Limiters = NewLimiters()
	}
	authLimiter := deps.Limiters.Auth
	postLimiter := deps.Limiters.Post
	socketLimiter := deps.Limiters.Socket

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PoW-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "Grow a Garden Trading",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware, deps.Pow.Middleware).Post("/register", HandleRegister(deps))
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Post("/logout", HandleLogout(deps))
			auth.Get("/challenge", HandleGetChallenge(deps))
			auth.With(authLimiter.Middleware).Post("/challenge", HandleVerifyChallenge(deps))
		})

		api.Get("/session", HandleSession(deps))

		api.Route("/trades", func(trades chi.Router) {
			trades.Get("/", HandleListTrades(deps))
			trades.With(postLimiter.Middleware).Post("/", HandleCreateTrade(deps))
			trades.Post("/{tradeId}/complete", HandleCompleteTrade(deps))
		})

		api.Route("/compose", func(form chi.Router) {
			form.Get("/", HandleGetCompose(deps))
			form.Put("/", HandleUpdateCompose(deps))
			form.Post("/open", HandleOpenCompose(deps))
			form.Post("/items", HandleAddComposeItem(deps))
			form.Delete("/items/{target}/{index}", HandleRemoveComposeItem(deps))
			form.With(postLimiter.Middleware).Post("/submit", HandleSubmitCompose(deps))
			form.Post("/cancel", HandleCancelCompose(deps))
		})

		api.Route("/conversations", func(conv chi.Router) {
			conv.Post("/close", HandleCloseConversation(deps))
			conv.Post("/input/send", HandleSendInput(deps))
			conv.Get("/{tradeId}", HandleOpenConversation(deps))
			conv.Post("/{tradeId}/messages", HandleSendMessage(deps))
			conv.Put("/{tradeId}/input", HandleSetMessageInput(deps))
		})

		if deps.Avatars != nil {
			api.Route("/user", func(user chi.Router) {
				user.Post("/avatar/presign", HandlePresignAvatarURL(deps))
				user.Put("/avatar", HandleUpdateAvatar(deps))
			})
		}
	})

	r.With(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret)).
		Get("/ws/trades/{tradeId}", HandleWebSocket(deps, wsUpgrader, socketLimiter))

	return r
}
