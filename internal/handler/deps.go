package handler

import (
	"net/http"

	"golang.org/x/time/rate"

	"gardentrade/internal/app/chat"
	"gardentrade/internal/app/market"
	"gardentrade/internal/app/storage"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/configs"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/limiter"
	"gardentrade/internal/pkg/pow"
	"gardentrade/internal/pkg/resp"
)

// AppDeps wires the handlers to the application services.
type AppDeps struct {
	Config  *configs.AppConfig
	Market  *market.Manager
	Catalog *trade.Catalog
	Hub     *chat.Hub
	Pow     *pow.Guard

	// Avatars is nil when object storage is not configured.
	Avatars *storage.Avatars

	// Limiters guards the rate-limited routes. Router creates them when nil;
	// the owner of AppDeps stops them on shutdown.
	Limiters *Limiters
}

// Limiters holds the per-IP rate limiters used by the router.
type Limiters struct {
	Auth   *limiter.IPRateLimiter
	Post   *limiter.IPRateLimiter
	Socket *limiter.IPRateLimiter
}

// NewLimiters starts the limiters with the default route budgets.
func NewLimiters() *Limiters {
	return &Limiters{
		Auth:   limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst),
		Post:   limiter.NewIPRateLimiter(rate.Limit(PostRate), PostBurst),
		Socket: limiter.NewIPRateLimiter(rate.Limit(SocketRate), SocketBurst),
	}
}

// Stop ends the sweepers of every limiter.
func (l *Limiters) Stop() {
	l.Auth.Stop()
	l.Post.Stop()
	l.Socket.Stop()
}

// viewHandler is a handler that runs against the caller's view.
type viewHandler func(w http.ResponseWriter, r *http.Request, v *market.View, identity *jwt.Payload)

// withView resolves the session token to its live view. Requests without a
// token, or whose view has expired, get ErrUnauthorized.
func withView(deps *AppDeps, next viewHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		v, ok := deps.Market.Get(identity.SessionID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		next(w, r, v, identity)
	}
}
