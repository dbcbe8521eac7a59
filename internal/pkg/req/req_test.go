package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gardentrade/internal/pkg/errs"
)

type input struct {
	Title string `json:"title"`
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
	}{
		{name: "ok", contentType: "application/json", body: `{"title":"Roses"}`},
		{name: "charset", contentType: "application/json; charset=utf-8", body: `{"title":"Roses"}`},
		{name: "media type", contentType: "text/plain", body: `{"title":"Roses"}`, wantCode: errs.ErrUnsupportedMediaType},
		{name: "syntax", contentType: "application/json", body: `{"title":`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "unknown field", contentType: "application/json", body: `{"name":"x"}`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "trailing", contentType: "application/json", body: `{"title":"a"}{"title":"b"}`, wantCode: errs.ErrExtraContentInBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			var dst input
			err := BindJSON(r, &dst)
			if tt.wantCode == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Title != "Roses" {
					t.Fatalf("title = %q", dst.Title)
				}
				return
			}
			if err == nil || err.Code != tt.wantCode {
				t.Fatalf("err = %v, want code %d", err, tt.wantCode)
			}
		})
	}
}
