package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"gardentrade/internal/app/chat"
	"gardentrade/internal/app/market"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/limiter"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/resp"
)

// HandleWebSocket subscribes the caller to pushes for one trade's chat. The
// session token travels in the token query parameter.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, _ *market.View, identity *jwt.Payload) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tradeID := chi.URLParam(r, "tradeId")
		if _, err := deps.Catalog.Get(r.Context(), tradeID); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(conn, identity.SessionID, identity.Username)
		if err := deps.Hub.Join(tradeID, client); err != nil {
			logx.Error(err, "Failed to join trade room", "trade_id", tradeID)
			conn.Close()
			return
		}

		logx.Debug("Push subscription established", "trade_id", tradeID, "username", identity.Username)

		go client.WritePump()
		client.ReadPump()
	})
}
