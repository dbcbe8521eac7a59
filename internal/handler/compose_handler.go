package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gardentrade/internal/app/compose"
	"gardentrade/internal/app/market"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/req"
	"gardentrade/internal/pkg/resp"
)

// ComposeTextInput updates the title and description; omitted fields are kept.
type ComposeTextInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type ComposeItemInput struct {
	Target   compose.Target `json:"target"`
	Kind     trade.ItemKind `json:"kind"`
	Name     string         `json:"name"`
	Quantity int            `json:"quantity"`
}

// respondForm writes the form snapshot, or err when the edit failed.
func respondForm(w http.ResponseWriter, r *http.Request, snap compose.Snapshot, err error) {
	if err != nil {
		resp.RespondError(w, r, err)
		return
	}
	resp.RespondSuccess(w, r, snap)
}

func HandleGetCompose(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		snap, err := v.ComposerState()
		respondForm(w, r, snap, err)
	})
}

func HandleOpenCompose(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		snap, err := v.OpenComposer()
		respondForm(w, r, snap, err)
	})
}

func HandleUpdateCompose(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		var input ComposeTextInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		snap, err := v.SetComposerText(input.Title, input.Description)
		respondForm(w, r, snap, err)
	})
}

func HandleAddComposeItem(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		var input ComposeItemInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		snap, err := v.AddComposerItem(input.Target, input.Kind, input.Name, input.Quantity)
		respondForm(w, r, snap, err)
	})
}

func HandleRemoveComposeItem(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		snap, err := v.RemoveComposerItem(compose.Target(chi.URLParam(r, "target")), index)
		respondForm(w, r, snap, err)
	})
}

func HandleCancelCompose(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		snap, err := v.CancelComposer()
		respondForm(w, r, snap, err)
	})
}

// HandleSubmitCompose posts the form as a new trade.
func HandleSubmitCompose(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, _ *jwt.Payload) {
		t, err := v.SubmitComposer(r.Context())
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, t)
	})
}
