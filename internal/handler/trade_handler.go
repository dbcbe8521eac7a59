package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gardentrade/internal/app/market"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/req"
	"gardentrade/internal/pkg/resp"
)

// HandleListTrades refreshes and returns the active trades, newest first.
func HandleListTrades(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		trades, err := v.ListActiveTrades(r.Context())
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"trades": trades})
	})
}

// HandleCreateTrade posts a trade from a complete draft.
func HandleCreateTrade(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		var draft trade.Draft
		if customErr := req.BindJSON(r, &draft); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		t, err := v.CreateTrade(r.Context(), draft)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, t)
	})
}

// HandleCompleteTrade marks one of the caller's trades completed.
func HandleCompleteTrade(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		t, err := v.CompleteTrade(r.Context(), chi.URLParam(r, "tradeId"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, t)
	})
}
