// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		want       int
	}{
		{"valid credentials", "admin", "s3cret", true, http.StatusOK},
		{"wrong password", "admin", "guess", true, http.StatusUnauthorized},
		{"wrong user", "root", "s3cret", true, http.StatusUnauthorized},
		{"no credentials", "", "", false, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			h := BasicAuth("admin", string(hash))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = AdminUserFromCtx(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rr.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 must carry a WWW-Authenticate challenge")
			}
			if tt.want == http.StatusOK && gotUser != "admin" {
				t.Errorf("context user = %q", gotUser)
			}
		})
	}
}

func TestBasicAuth_InvalidHashDeniesAll(t *testing.T) {
	next, called := okHandler()
	h := BasicAuth("admin", "not-a-bcrypt-hash")(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.SetBasicAuth("admin", "not-a-bcrypt-hash")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || *called {
		t.Errorf("status = %d, called = %v", rr.Code, *called)
	}
}

func TestServiceToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"valid bearer", "svc", "Bearer svc", http.StatusOK},
		{"wrong token", "svc", "Bearer other", http.StatusUnauthorized},
		{"missing header", "svc", "", http.StatusUnauthorized},
		{"basic scheme", "svc", "Basic svc", http.StatusUnauthorized},
		{"unconfigured token", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			h := ServiceToken(tt.token)(next)

			req := httptest.NewRequest(http.MethodPost, "/internal/translate-post", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if *called != (tt.want == http.StatusOK) {
				t.Errorf("next called = %v", *called)
			}
		})
	}
}
