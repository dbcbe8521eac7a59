package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gardentrade/internal/app/market"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/req"
	"gardentrade/internal/pkg/resp"
)

type SendMessageInput struct {
	Body string `json:"body"`
}

type MessageInputInput struct {
	Text string `json:"text"`
}

// HandleOpenConversation shows the chat of a trade and returns its history.
func HandleOpenConversation(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		conv, err := v.OpenConversation(r.Context(), chi.URLParam(r, "tradeId"))
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, conv)
	})
}

// HandleSendMessage appends a message to a trade's chat.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		msg, err := v.SendMessage(r.Context(), chi.URLParam(r, "tradeId"), input.Body)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, msg)
	})
}

// HandleSetMessageInput stores the unsent draft of the open chat.
func HandleSetMessageInput(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		var input MessageInputInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := v.SetMessageInput(chi.URLParam(r, "tradeId"), input.Text); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, nil)
	})
}

// HandleSendInput sends the stored draft of the open chat.
func HandleSendInput(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		msg, err := v.SendInput(r.Context())
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, msg)
	})
}

func HandleCloseConversation(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		if err := v.CloseConversation(); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, nil)
	})
}
