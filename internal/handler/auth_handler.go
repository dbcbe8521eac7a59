/*
Package handler provides the HTTP handlers and routing of the trading server.
*/
package handler

import (
	"net/http"

	"gardentrade/internal/app/market"
	"gardentrade/internal/app/session"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/req"
	"gardentrade/internal/pkg/resp"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChallengeInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// sessionResponse is returned by login and registration.
type sessionResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

// HandleRegister creates an account and opens a session for it.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id, _, s, err := deps.Market.Register(r.Context(), input.Username, input.Email, input.Password)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		respondSession(w, r, deps, id, s)
	}
}

// HandleLogin authenticates the player and opens a session.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id, _, s, err := deps.Market.Login(r.Context(), input.Username, input.Password)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		respondSession(w, r, deps, id, s)
	}
}

func respondSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, sessionID string, s session.Session) {
	token, err := jwt.GenerateToken(&jwt.Payload{
		SessionID: sessionID,
		Username:  s.Username,
	}, deps.Config.JWTSecret, jwt.SessionExpiration)
	if err != nil {
		deps.Market.Logout(sessionID)
		logx.Error(err, "Token generation failed", "username", s.Username)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, sessionResponse{Token: token, Session: s})
}

// HandleLogout ends the caller's session and drops its view.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		deps.Market.Logout(identity.SessionID)
		resp.RespondSuccess(w, r, session.Session{})
	}
}

// HandleSession returns the full view state of the caller.
func HandleSession(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		resp.RespondSuccess(w, r, v.State())
	})
}

// HandleGetChallenge issues a proof-of-work nonce for registration.
func HandleGetChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"enabled":    deps.Pow.Enabled(),
			"difficulty": deps.Pow.Difficulty(),
		}
		if deps.Pow.Enabled() {
			data["nonce"] = deps.Pow.Challenge()
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleVerifyChallenge exchanges a solved nonce for a single-use proof token.
func HandleVerifyChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input ChallengeInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		token, err := deps.Pow.Verify(input.Nonce, input.Counter)
		if err != nil {
			logx.Debug("Proof of work rejected", "reason", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"token": token})
	}
}
