package handler

import (
	"context"
	"net/http"
	"time"

	"gardentrade/internal/app/market"
	"gardentrade/internal/pkg/auth/jwt"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/req"
	"gardentrade/internal/pkg/resp"
)

type PresignAvatarInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

type UpdateAvatarInput struct {
	AvatarURL string `json:"avatarUrl"`
}

// HandlePresignAvatarURL returns a presigned upload slot under the caller's
// avatar prefix.
func HandlePresignAvatarURL(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, _ *market.View, identity *jwt.Payload) {
		var input PresignAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		upload, err := deps.Avatars.PresignUpload(r.Context(), identity.Username, input.FileName, input.MimeType, input.FileSize)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, upload)
	})
}

// HandleUpdateAvatar records an uploaded avatar and deletes the previous one.
func HandleUpdateAvatar(deps *AppDeps) http.HandlerFunc {
	return withView(deps, func(w http.ResponseWriter, r *http.Request, v *market.View, identity *jwt.Payload) {
		var input UpdateAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, ok := deps.Avatars.OwnedKey(identity.Username, input.AvatarURL); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		oldURL := v.Session().Avatar

		s, err := v.SetAvatar(r.Context(), input.AvatarURL)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		if oldKey, ok := deps.Avatars.OwnedKey(identity.Username, oldURL); ok && oldURL != input.AvatarURL {
			go func(k string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := deps.Avatars.Delete(ctx, k); err != nil {
					logx.Warn("Failed to delete replaced avatar", "key", k, "error", err.Error())
				}
			}(oldKey)
		}

		resp.RespondSuccess(w, r, s)
	})
}
