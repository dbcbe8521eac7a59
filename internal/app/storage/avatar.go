package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"gardentrade/internal/pkg/errs"
)

const (
	// MaxAvatarSize is the largest accepted avatar upload in bytes.
	MaxAvatarSize = 2 * 1024 * 1024

	// PresignedURLDuration is how long an upload URL stays valid.
	PresignedURLDuration = 5 * time.Minute

	avatarPrefix = "avatars"
)

var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// AvatarUpload is a presigned slot for one avatar image.
type AvatarUpload struct {
	PresignedURL string `json:"presignedUrl"`
	Key          string `json:"fileKey"`
	PublicURL    string `json:"publicUrl"`
}

// Avatars issues avatar uploads under a per-user key prefix.
type Avatars struct {
	store   StorageService
	baseURL string
	newID   func() string
}

// NewAvatars returns an avatar service publishing objects under publicBaseURL.
func NewAvatars(store StorageService, publicBaseURL string) *Avatars {
	return &Avatars{
		store:   store,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		newID:   func() string { return uuid.New().String() },
	}
}

// ValidateAvatar checks size, extension and MIME type; the extension must
// agree with the declared type.
func ValidateAvatar(fileName, mimeType string, fileSize int64) error {
	if fileSize <= 0 || fileSize > MaxAvatarSize {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	want, ok := extToMIME[strings.ToLower(filepath.Ext(fileName))]
	if !ok || want != strings.ToLower(mimeType) {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}
	return nil
}

// PresignUpload validates the file and returns an upload slot for username.
func (a *Avatars) PresignUpload(ctx context.Context, username, fileName, mimeType string, fileSize int64) (AvatarUpload, error) {
	if err := ValidateAvatar(fileName, mimeType, fileSize); err != nil {
		return AvatarUpload{}, err
	}

	key := fmt.Sprintf("%s%s%s", a.userPrefix(username), a.newID(), strings.ToLower(filepath.Ext(fileName)))

	url, err := a.store.PresignUpload(ctx, key, strings.ToLower(mimeType), fileSize, PresignedURLDuration)
	if err != nil {
		return AvatarUpload{}, errs.Wrap(errs.ErrFileStorageFailed, err)
	}

	return AvatarUpload{PresignedURL: url, Key: key, PublicURL: a.PublicURL(key)}, nil
}

// PublicURL returns the address an object is served from.
func (a *Avatars) PublicURL(key string) string {
	return a.baseURL + "/" + key
}

// OwnedKey returns the object key behind avatarURL if it is a file directly
// under username's prefix. Usernames may contain "/", so a key nested deeper
// belongs to another user whose name extends this one.
func (a *Avatars) OwnedKey(username, avatarURL string) (string, bool) {
	key, ok := strings.CutPrefix(avatarURL, a.baseURL+"/")
	if !ok || strings.Contains(key, "..") {
		return "", false
	}

	name, ok := strings.CutPrefix(key, a.userPrefix(username))
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return key, true
}

// Delete removes a previously uploaded avatar.
func (a *Avatars) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		return errs.Wrap(errs.ErrFileStorageFailed, err)
	}
	return nil
}

func (a *Avatars) userPrefix(username string) string {
	return avatarPrefix + "/" + strings.ToLower(username) + "/"
}
