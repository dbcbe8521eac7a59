package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "s1", Username: "GardenMaster"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	payload, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.SessionID != "s1" || payload.Username != "GardenMaster" {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Issuer != TokenIssuer {
		t.Fatalf("issuer = %q", payload.Issuer)
	}
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "s1", Username: "u"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token, "other"); err == nil {
		t.Fatal("expected signature error")
	}

	expired, err := GenerateToken(&Payload{SessionID: "s1", Username: "u"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(expired, testSecret); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestMiddleware(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionID: "s9", Username: "PetLover"}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var got *Payload
	h := IdentityExtractorMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPayloadFromContext(r)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		wantID string
	}{
		{name: "header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, wantID: "s9"},
		{name: "query", setup: func(r *http.Request) { r.URL.RawQuery = "token=" + token }, wantID: "s9"},
		{name: "anonymous", setup: func(r *http.Request) {}},
		{name: "bad scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			h.ServeHTTP(httptest.NewRecorder(), r)

			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("expected anonymous, got %+v", got)
				}
				return
			}
			if got == nil || got.SessionID != tt.wantID {
				t.Fatalf("payload = %+v", got)
			}
		})
	}
}
