/*
Package req binds HTTP request bodies into handler input structs.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"gardentrade/internal/pkg/errs"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes int64 = 64 << 10

// BindJSON decodes the JSON body of r into dst. Unknown fields and trailing
// content are rejected.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
